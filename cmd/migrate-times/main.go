// Command migrate-times rewrites the timestamps of posts and drafts as UTC.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/db"
	"github.com/debemdeboas/quill/internal/logger"
	"github.com/debemdeboas/quill/internal/util"
)

var timestampTables = []string{"posts", "drafts"}

type rowTimes struct {
	ID         string
	CreatedAt  sql.NullString
	ModifiedAt sql.NullString
}

type result struct {
	Updated int
	Failed  int
}

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to the config file")
	flag.Parse()

	log := logger.New("info")
	config.SetLogger(log)
	db.SetLogger(log)

	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	database, err := db.Open(config.AppConfig.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	if err := database.InitDB(); err != nil {
		log.Fatal().Err(err).Msgf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	log.Info().Msg("Starting timestamp migration")
	for _, table := range timestampTables {
		res, err := migrateTable(context.Background(), database, table, log)
		if err != nil {
			log.Fatal().Err(err).Str("table", table).Msg("Migration failed")
		}
		log.Info().Str("table", table).Int("updated", res.Updated).Int("failed", res.Failed).Msg("Table migrated")
	}
	log.Info().Msg("Timestamp migration complete")
}

func migrateTable(ctx context.Context, database db.DB, table string, log zerolog.Logger) (result, error) {
	var res result

	rows, err := database.QueryContext(ctx, fmt.Sprintf("SELECT id, created_at, modified_at FROM %s", table))
	if err != nil {
		return res, fmt.Errorf("failed to query %s: %w", table, err)
	}

	var items []rowTimes
	for rows.Next() {
		var item rowTimes
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.ModifiedAt); err != nil {
			log.Warn().Err(err).Msg("Failed to scan row")
			continue
		}
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("error during row iteration: %w", err)
	}

	for _, item := range items {
		for column, value := range map[string]sql.NullString{"created_at": item.CreatedAt, "modified_at": item.ModifiedAt} {
			if !value.Valid || value.String == "" {
				continue
			}

			t, err := util.ParseFuzzyTime(value.String)
			if err != nil {
				log.Warn().Err(err).Str("id", item.ID).Str("column", column).Msg("Could not parse timestamp")
				res.Failed++
				continue
			}

			query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE id = ?", table, column)
			if _, err := database.ExecContext(ctx, query, t.Format(time.RFC3339Nano), item.ID); err != nil {
				log.Warn().Err(err).Str("id", item.ID).Str("column", column).Msg("Failed to update timestamp")
				res.Failed++
				continue
			}
			res.Updated++
		}
	}

	return res, nil
}
