package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"pdf-rag/internal/chromemdb"
	"pdf-rag/internal/config"
	"pdf-rag/internal/db"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/logger"
	"pdf-rag/internal/rag"
	"pdf-rag/internal/shell"
	"pdf-rag/internal/tui"
	"pdf-rag/internal/web"
)

const configFilePath = "./configs/config.yaml"

func main() {
	configPath := flag.String("config", configFilePath, "Path to the YAML config file")
	mode := flag.String("mode", "repl", "One of repl, web, tui, ask, ingest, export, import")
	filePath := flag.String("file", "", "Path to the document (overrides document.path)")
	query := flag.String("query", "", "Question to answer in ask mode")
	rebuild := flag.Bool("rebuild", false, "Rebuild the vector store from the document")
	dryRun := flag.Bool("dry-run", false, "With -mode ingest, print the chunks and do not store them")
	snapshot := flag.String("snapshot", "", "Snapshot file for export and import")
	addr := flag.String("addr", "", "Listen address for web mode (overrides web.addr)")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if *filePath != "" {
		cfg.Document.Path = *filePath
	}
	if *addr != "" {
		cfg.Web.Addr = *addr
	}

	logger.Setup(&cfg.Log)

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Error().Str("field", e.Field).Msg(e.Message)
		}
		log.Fatal().Int("errors", len(errs)).Msg("Invalid configuration")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "ingest":
		ingest(ctx, cfg, *rebuild, *dryRun)
	case "export":
		exportStore(ctx, cfg, *snapshot)
	case "import":
		importStore(ctx, cfg, *snapshot)
	case "ask":
		if *query == "" {
			log.Fatal().Msg("Please provide a question using the -query flag")
		}
		askOnce(ctx, cfg, *rebuild, *query)
	case "repl", "web", "tui":
		chat(ctx, cfg, *rebuild, *mode)
	default:
		log.Fatal().Str("mode", *mode).Msg("Unknown mode")
	}
}

// newRAG wires embedder, store and chat model from cfg.
func newRAG(ctx context.Context, cfg *config.Config) *rag.RAG {
	embedder, err := embedding.New(ctx, &cfg.Embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, err := openStore(ctx, cfg, embedding.ChromemFunc(embedder))
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}

	llm, err := llmservice.New(ctx, &cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing language model")
	}

	r, err := rag.NewRAG(cfg, embedder, store, llm)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating pipeline")
	}
	return r
}

func openStore(ctx context.Context, cfg *config.Config, embed chromem.EmbeddingFunc) (rag.VectorStore, error) {
	switch cfg.Store.Backend {
	case "pgvector":
		return db.Open(ctx, &cfg.Store.Database)
	default:
		return openChromem(cfg, embed)
	}
}

func openChromem(cfg *config.Config, embed chromem.EmbeddingFunc) (*chromemdb.VectorDBManager, error) {
	if err := helper.CreateParentFolder(cfg.Store.Path); err != nil {
		return nil, err
	}
	return chromemdb.NewVectorDBManager(cfg.Store.Path, cfg.Store.Collection, cfg.Store.Compress, cfg.Store.EncryptionKey, embed)
}

// prepare builds or loads the store behind a spinner.
func prepare(ctx context.Context, r *rag.RAG, rebuild bool) *rag.PrepareResult {
	bar := getSpinner(" Preparing vector store...")
	res, err := r.Prepare(ctx, rebuild)
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("Error preparing vector store")
	}
	if res.Built {
		color.Green("✓ Indexed %d chunks from %d pages\n", res.Chunks, res.Pages)
	} else {
		color.Green("✓ Loaded %d chunks from the existing store\n", res.Entries)
	}
	return res
}

func ingest(ctx context.Context, cfg *config.Config, rebuild, dryRun bool) {
	if dryRun {
		r, err := rag.NewRAG(cfg, nil, nil, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("Error creating pipeline")
		}
		chunks, pages, err := r.Chunks()
		if err != nil {
			log.Fatal().Err(err).Msg("Error parsing document")
		}
		helper.PrettyPrint(chunks)
		log.Info().Int("pages", pages).Int("chunks", len(chunks)).Msg("Dry run, nothing stored")
		return
	}

	r := newRAG(ctx, cfg)
	defer r.Close()
	prepare(ctx, r, rebuild)
}

func askOnce(ctx context.Context, cfg *config.Config, rebuild bool, query string) {
	r := newRAG(ctx, cfg)
	defer r.Close()
	prepare(ctx, r, rebuild)

	response, err := r.Ask(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg(llmservice.Describe(err))
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	for _, s := range response.Sources {
		fmt.Printf("[page %d] %.120s\n", s.Chunk.PageNumber, s.Chunk.Content)
	}
	fmt.Println()

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
}

func chat(ctx context.Context, cfg *config.Config, rebuild bool, mode string) {
	r := newRAG(ctx, cfg)
	defer r.Close()
	res := prepare(ctx, r, rebuild)

	var err error
	switch mode {
	case "web":
		err = web.NewServer(r, &cfg.Web).Listen(ctx, cfg.Web.Addr)
	case "tui":
		summary := fmt.Sprintf("%s: %d chunks", cfg.Document.Path, res.Entries)
		_, err = tea.NewProgram(tui.New(ctx, r, cfg.Shell.QuitWords, summary), tea.WithAltScreen()).Run()
	default:
		// unblock the line reader on Ctrl-C
		go func() {
			<-ctx.Done()
			os.Stdin.Close()
		}()
		err = shell.NewREPL(r, &cfg.Shell, os.Stdin, os.Stdout).WithSpinner(true).Run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Error running chat")
	}
}

func exportStore(ctx context.Context, cfg *config.Config, file string) {
	m := chromemOnly(ctx, cfg, file)
	if err := helper.CreateParentFolder(file); err != nil {
		log.Fatal().Err(err).Msg("Error creating folder")
	}
	if err := m.Export(ctx, file); err != nil {
		log.Fatal().Err(err).Msg("Error exporting collection")
	}
	count, _ := m.Count(ctx)
	log.Info().Str("file", file).Int("entries", count).Msg("Exported vector store")
}

func importStore(ctx context.Context, cfg *config.Config, file string) {
	m := chromemOnly(ctx, cfg, file)
	if err := m.Import(ctx, file); err != nil {
		log.Fatal().Err(err).Msg("Error importing collection")
	}
	count, _ := m.Count(ctx)
	log.Info().Str("file", file).Int("entries", count).Msg("Imported vector store")
}

func chromemOnly(ctx context.Context, cfg *config.Config, file string) *chromemdb.VectorDBManager {
	if cfg.Store.Backend != "chromem" {
		log.Fatal().Str("backend", cfg.Store.Backend).Msg("Snapshots are only supported for the chromem backend")
	}
	if file == "" {
		log.Fatal().Msg("Please provide a snapshot file using the -snapshot flag")
	}
	embedder, err := embedding.New(ctx, &cfg.Embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	m, err := openChromem(cfg, embedding.ChromemFunc(embedder))
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector database manager")
	}
	return m
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}
