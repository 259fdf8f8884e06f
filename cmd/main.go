package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"document-qa/internal/config"
	"document-qa/internal/embedding"
	"document-qa/internal/llmservice"
	"document-qa/internal/rag"
	"document-qa/internal/render"
	"document-qa/internal/session"
	"document-qa/internal/tui"
)

const configFilePath = "./configs/config.yaml"

type options struct {
	configPath    string
	filePath      string
	query         string
	format        string
	showAllChunks bool
	showDoc       bool
	interactive   bool
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	var opts options
	flag.StringVar(&opts.configPath, "config", configFilePath, "Path to the config file")
	flag.StringVar(&opts.filePath, "file", "", "Path to a pdf, docx, or txt document")
	flag.StringVar(&opts.query, "query", "", "Question to ask about the document")
	flag.StringVar(&opts.format, "format", render.FormatText, "Output format: text, html or json")
	flag.BoolVar(&opts.showAllChunks, "show-all-chunks", false, "Show all chunks retrieved from vector search")
	flag.BoolVar(&opts.showDoc, "show-doc", false, "Show parsed contents of the document")
	flag.BoolVar(&opts.interactive, "tui", false, "Start an interactive session")
	flag.Parse()

	if !slices.Contains(render.Formats(), opts.format) {
		fmt.Fprintf(os.Stderr, "unknown -format %q\n", opts.format)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, session.UserMessage(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		log.Error().Err(err).Msg("Error loading config")
		return err
	}

	interactive := opts.interactive || (opts.filePath == "" && opts.query == "")
	logFile, err := setupLogging(cfg, interactive)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	sess, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	showAll := opts.showAllChunks || cfg.RAG.ShowAllChunks
	if interactive {
		return tui.Run(ctx, sess, opts.filePath, showAll)
	}
	return runOnce(ctx, sess, opts, showAll, os.Stdout)
}

func newSession(cfg *config.Config) (*session.Session, error) {
	embedder, err := embedding.New(&cfg.EmbedLLM)
	if err != nil {
		log.Error().Err(err).Msg("Error initializing embedder")
		return nil, err
	}

	llm, err := llmservice.NewModel(&cfg.InferenceLLM)
	if err != nil {
		log.Error().Err(err).Msg("Error initializing language model")
		return nil, err
	}
	generator := rag.NewGenerator(llm, rag.WithTimeout(time.Duration(cfg.InferenceLLM.TimeoutSecs)*time.Second))

	return session.New(embedder, generator,
		session.WithChunkSize(cfg.RAG.ChunkSize),
		session.WithTopK(cfg.RAG.TopK),
	), nil
}

// runOnce uploads the file, optionally prints the parsed document and answers
// the query.
func runOnce(ctx context.Context, sess *session.Session, opts options, showAll bool, out io.Writer) error {
	if opts.filePath != "" {
		data, err := os.ReadFile(opts.filePath)
		if err != nil {
			log.Error().Err(err).Msg("Error reading document")
			return err
		}
		if err := sess.Upload(ctx, filepath.Base(opts.filePath), data); err != nil {
			return err
		}
	}

	if opts.showDoc && sess.Document() != nil {
		if err := render.Document(out, sess.Document(), opts.format); err != nil {
			return err
		}
		if opts.query == "" {
			return nil
		}
	}

	result, err := sess.Ask(ctx, opts.query, showAll)
	if err != nil {
		return err
	}
	return render.Result(out, result, opts.format)
}

// setupLogging applies the configured level. The interactive session logs to
// a file so the alternate screen stays clean.
func setupLogging(cfg *config.Config, toFile bool) (*os.File, error) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Error().Err(err).Msg("Error parsing log level")
		return nil, err
	}
	zerolog.SetGlobalLevel(level)

	if !toFile {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Error().Err(err).Msg("Error opening log file")
		return nil, err
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: time.RFC3339}).With().Caller().Logger()
	return f, nil
}
