// internal/repository/postgres/agent_config_repository.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andresuchdata/stockeasy/internal/repository"
	"github.com/andresuchdata/stockeasy/internal/restock"
)

const globalAgentConfigID = "GLOBAL_AGENT_CONFIG"

type agentConfigRepository struct {
	db *DB
}

func NewAgentConfigRepository(db *DB) repository.AgentConfigRepository {
	return &agentConfigRepository{db: db}
}

func (r *agentConfigRepository) LoadAgentConfig(ctx context.Context) (restock.Settings, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, `SELECT config FROM agent_config WHERE id = $1`, globalAgentConfigID)
	if errors.Is(err, sql.ErrNoRows) {
		return restock.Settings{}, repository.ErrNotFound
	}
	if err != nil {
		return restock.Settings{}, fmt.Errorf("error loading agent config: %w", err)
	}

	var s restock.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return restock.Settings{}, fmt.Errorf("error decoding agent config: %w", err)
	}
	return s, nil
}

func (r *agentConfigRepository) SaveAgentConfig(ctx context.Context, settings restock.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error encoding agent config: %w", err)
	}

	query := `
		INSERT INTO agent_config (id, config, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET config = EXCLUDED.config, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, globalAgentConfigID, raw); err != nil {
		return fmt.Errorf("error saving agent config: %w", err)
	}
	return nil
}
