// Command migrate imports a directory of markdown files as posts or drafts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/db"
	"github.com/debemdeboas/quill/internal/logger"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/repository"
	"github.com/debemdeboas/quill/internal/repository/editor"
	"github.com/debemdeboas/quill/internal/util"
)

const (
	targetPosts  = "posts"
	targetDrafts = "drafts"
)

type importer struct {
	posts  repository.PostRepository
	drafts editor.Repository
	owner  model.UserID
	log    zerolog.Logger
}

func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	ownerID := flag.String("owner-id", "", "Owner user ID for the imported files")
	target := flag.String("as", targetPosts, "Import as posts or drafts")
	configPath := flag.String("config", config.DefaultConfigPath, "Path to the config file")
	flag.Parse()

	log := logger.New("info")
	config.SetLogger(log)
	db.SetLogger(log)
	repository.SetLogger(log)
	editor.SetLogger(log)

	if *path == "" || *ownerID == "" {
		log.Fatal().Msg("Both --path and --owner-id flags are required")
	}
	if *target != targetPosts && *target != targetDrafts {
		log.Fatal().Str("as", *target).Msg("--as must be posts or drafts")
	}

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

	imp := &importer{
		posts:  repository.NewDBPostRepository(database),
		drafts: editor.NewDBRepository(database),
		owner:  model.UserID(*ownerID),
		log:    log,
	}

	n, err := imp.importDir(context.Background(), *path, *target)
	if err != nil {
		log.Fatal().Err(err).Str("path", *path).Msg("Import failed")
	}
	log.Info().Int("count", n).Str("as", *target).Msg("Import complete")
}

// importDir imports every .md file in dir. Files that fail are logged and skipped.
func (imp *importer) importDir(ctx context.Context, dir, target string) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("error reading directory %s: %w", dir, err)
	}

	count := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}

		if target == targetDrafts {
			err = imp.importDraft(ctx, dir, file)
		} else {
			err = imp.importPost(dir, file)
		}
		if err != nil {
			imp.log.Error().Err(err).Str("file", file.Name()).Msg("Error processing file")
			continue
		}
		imp.log.Info().Str("file", file.Name()).Msg("Imported")
		count++
	}
	return count, nil
}

func (imp *importer) importPost(dir string, file os.DirEntry) error {
	content, err := os.ReadFile(filepath.Join(dir, file.Name()))
	if err != nil {
		return err
	}

	fileInfo, err := file.Info()
	if err != nil {
		return err
	}
	modTime := fileInfo.ModTime().UTC()

	createdDate := modTime
	if frontMatter, err := util.GetFrontMatter(content); err == nil && !frontMatter.Date.IsZero() {
		createdDate = frontMatter.Date.UTC()
	}

	post := imp.posts.NewPost()
	post.Title = util.TitleFromMarkdown(content, strings.TrimSuffix(file.Name(), ".md"))
	post.Markdown = content
	post.Tags = util.KeywordsFromMarkdown(content)
	post.CreatedDate = createdDate
	post.ModifiedDate = modTime
	post.Owner = imp.owner
	post.Path = string(post.ID)

	return imp.posts.SavePost(post)
}

func (imp *importer) importDraft(ctx context.Context, dir string, file os.DirEntry) error {
	content, err := os.ReadFile(filepath.Join(dir, file.Name()))
	if err != nil {
		return err
	}

	_, err = imp.drafts.CreateDraft(ctx, imp.owner, model.DraftInput{
		Title:   util.TitleFromMarkdown(content, strings.TrimSuffix(file.Name(), ".md")),
		Content: string(content),
		Tags:    util.KeywordsFromMarkdown(content),
	})
	return err
}
