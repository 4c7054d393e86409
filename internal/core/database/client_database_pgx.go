package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/welcomechat/ingest/internal/config"
	"github.com/welcomechat/ingest/internal/core"
	"github.com/welcomechat/ingest/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Client users

func (c *DatabaseClient) CreateClientUser(ctx context.Context, user *models.ClientUser) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO client_users (id, client_id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.ClientID, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetClientUserByEmail(ctx context.Context, email string) (*models.ClientUser, error) {
	const q = `
		SELECT id, client_id, email, password_hash, created_at, updated_at
		FROM client_users WHERE email = $1
	`
	var u models.ClientUser
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.ClientID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Ingestion jobs

func (c *DatabaseClient) CreateJob(ctx context.Context, job *models.IngestionJob) error {
	if job == nil {
		return errors.New("nil job")
	}
	const q = `
		INSERT INTO ingestion_jobs
			(id, client_id, agent_name, document_url, source_kind, method, status, error, retry_count, started_at, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()), COALESCE($11, now()), COALESCE($12, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		job.ID, job.ClientID, job.AgentName, job.DocumentURL, job.SourceKind, job.Method,
		job.Status, job.Error, job.RetryCount, job.StartedAt, job.CreatedAt, job.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetJob(ctx context.Context, id string) (*models.IngestionJob, error) {
	const q = `
		SELECT id, client_id, agent_name, document_url, source_kind, method, status, error, retry_count, started_at, completed_at, created_at, updated_at
		FROM ingestion_jobs
		WHERE id = $1
	`
	var j models.IngestionJob
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&j.ID, &j.ClientID, &j.AgentName, &j.DocumentURL, &j.SourceKind, &j.Method,
		&j.Status, &j.Error, &j.RetryCount, &j.StartedAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (c *DatabaseClient) ListJobsByClient(ctx context.Context, clientID string) ([]models.IngestionJob, error) {
	const q = `
		SELECT id, client_id, agent_name, document_url, source_kind, method, status, error, retry_count, started_at, completed_at, created_at, updated_at
		FROM ingestion_jobs
		WHERE client_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.IngestionJob
	for rows.Next() {
		var j models.IngestionJob
		if err := rows.Scan(
			&j.ID, &j.ClientID, &j.AgentName, &j.DocumentURL, &j.SourceKind, &j.Method,
			&j.Status, &j.Error, &j.RetryCount, &j.StartedAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, errText string) error {
	// Terminal statuses also stamp completed_at.
	const q = `
		UPDATE ingestion_jobs
		SET status = $2,
		    error = $3,
		    completed_at = CASE WHEN $2 IN ('completed', 'failed') THEN now() ELSE completed_at END,
		    updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status, errText)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("job not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) IncrementJobRetry(ctx context.Context, id string) error {
	const q = `
		UPDATE ingestion_jobs
		SET retry_count = retry_count + 1, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("job not found: %s", id)
	}
	return nil
}

// Agent content

func (c *DatabaseClient) CreateContentRecord(ctx context.Context, rec *models.ContentRecord) error {
	if rec == nil {
		return errors.New("nil content record")
	}
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	const q = `
		INSERT INTO agent_content
			(id, client_id, agent_name, content, url, source_kind, metadata, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()), COALESCE($9, now()))
	`
	_, err = c.db.ExecContext(ctx, q,
		rec.ID, rec.ClientID, rec.AgentName, rec.Content, rec.URL, rec.SourceKind, meta, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetContentRecord(ctx context.Context, id string) (*models.ContentRecord, error) {
	const q = `
		SELECT id, client_id, agent_name, content, url, source_kind, metadata, created_at, updated_at
		FROM agent_content
		WHERE id = $1
	`
	var (
		rec  models.ContentRecord
		meta []byte
	)
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.ClientID, &rec.AgentName, &rec.Content, &rec.URL, &rec.SourceKind, &meta, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}

func (c *DatabaseClient) ListContentByClient(ctx context.Context, clientID string) ([]models.ContentRecord, error) {
	const q = `
		SELECT id, client_id, agent_name, content, url, source_kind, metadata, created_at, updated_at
		FROM agent_content
		WHERE client_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ContentRecord
	for rows.Next() {
		var (
			rec  models.ContentRecord
			meta []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.ClientID, &rec.AgentName, &rec.Content, &rec.URL, &rec.SourceKind, &meta, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DeleteContentRecord(ctx context.Context, clientID, id string) error {
	// Chunks cascade via the FK; client_id guards cross-tenant deletes.
	const q = `DELETE FROM agent_content WHERE id = $1 AND client_id = $2`
	res, err := c.db.ExecContext(ctx, q, id, clientID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("content not found: %s", id)
	}
	return nil
}

// Knowledge chunks

// InsertKnowledgeChunks inserts chunks in a single transaction.
func (c *DatabaseClient) InsertKnowledgeChunks(ctx context.Context, chunks []models.KnowledgeChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO knowledge_chunks
			(id, content_id, client_id, position, text, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.ContentID, ch.ClientID, ch.Position, ch.Text, vec, ch.CreatedAt,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SearchKnowledgeChunks finds top-k similar chunks across a client's
// knowledge base for a query embedding.
func (c *DatabaseClient) SearchKnowledgeChunks(ctx context.Context, clientID string, queryVec []float32, limit int) ([]models.KnowledgeChunk, error) {
	const q = `
		SELECT id, content_id, client_id, position, text, embedding
		FROM knowledge_chunks
		WHERE client_id = $1
		ORDER BY embedding <-> $2
		LIMIT $3
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, clientID, vec, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.KnowledgeChunk
	for rows.Next() {
		var (
			ch  models.KnowledgeChunk
			emb pgvector.Vector
		)
		if err := rows.Scan(&ch.ID, &ch.ContentID, &ch.ClientID, &ch.Position, &ch.Text, &emb); err != nil {
			return nil, err
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}

// Activities

func (c *DatabaseClient) InsertActivity(ctx context.Context, entry *models.ActivityLogEntry) error {
	if entry == nil {
		return errors.New("nil activity")
	}
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	const q = `
		INSERT INTO client_activities (id, client_id, activity_type, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`
	_, err = c.db.ExecContext(ctx, q,
		entry.ID, entry.ClientID, entry.Type, entry.Description, meta, entry.CreatedAt)
	return err
}

func (c *DatabaseClient) ListActivitiesByClient(ctx context.Context, clientID string, limit int) ([]models.ActivityLogEntry, error) {
	const q = `
		SELECT id, client_id, activity_type, description, metadata, created_at
		FROM client_activities
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, q, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ActivityLogEntry
	for rows.Next() {
		var (
			e    models.ActivityLogEntry
			meta []byte
		)
		if err := rows.Scan(&e.ID, &e.ClientID, &e.Type, &e.Description, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
