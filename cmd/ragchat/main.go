package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ragchat/internal/assemble"
	"ragchat/internal/chunker"
	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/embedding/openai"
	"ragchat/internal/embedding/tfidf"
	"ragchat/internal/generator"
	"ragchat/internal/index/memory"
	"ragchat/internal/index/qdrant"
	"ragchat/internal/index/sparse"
	"ragchat/internal/ingest"
	"ragchat/internal/pipeline"
	"ragchat/internal/retriever"
	"ragchat/internal/summarizer"
	"ragchat/internal/tui"
)

const usage = `Usage: ragchat [-config=config.yaml] [-debug] <command> [args]

Commands:
  hello                 full smoke test: one retrieve+assemble+generate round trip
  doctor                cheap per-stage diagnostics (no generation call)
  ingest <files...>     chunk, embed and index documents, then save a snapshot
  ask <question>        answer one question with citations
  search [files...]     interactive retrieval browser
`

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var debug bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ragchat/config.yaml if not provided)")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(debug)
	defer func() { _ = logger.Sync() }()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "hello":
		runHealth(cfg, logger.Sugar(), rest, true)
	case "doctor":
		runHealth(cfg, logger.Sugar(), rest, false)
	case "ingest":
		runIngest(cfg, logger.Sugar(), rest)
	case "ask":
		runAsk(cfg, logger.Sugar(), rest)
	case "search":
		runSearch(cfg, logger.Sugar(), rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}

func newLogger(debug bool) *zap.Logger {
	zcfg := zap.NewDevelopmentConfig()
	if !debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	return logger
}

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.New(), nil
	case "openai":
		o := cfg.Embedder.OpenAI
		return openai.New(openai.Config{
			BaseURL:    o.BaseURL,
			APIKeyEnv:  o.APIKeyEnv,
			Model:      o.Model,
			Timeout:    time.Duration(o.TimeoutSecs) * time.Second,
			MaxRetries: o.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func buildChunker(cfg *config.AppConfig) (domain.Chunker, error) {
	switch cfg.Chunker.Type {
	case "sentence", "":
		return chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences), nil
	case "words":
		return chunker.NewWordWindowChunker(cfg.Chunker.WindowWords, cfg.Chunker.OverlapWords), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}
}

func buildGenerator(cfg *config.AppConfig) (domain.Generator, error) {
	return generator.New(generator.Config{
		BaseURL:    cfg.Generator.BaseURL,
		APIKeyEnv:  cfg.Generator.APIKeyEnv,
		Model:      cfg.Generator.Model,
		Timeout:    time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Generator.MaxRetries,
	})
}

// corpus is the searchable state a command runs against: either ingested
// in-process from document paths or loaded from the saved snapshot.
type corpus struct {
	index   domain.Index
	sparse  *sparse.Index
	summary string
}

func loadCorpus(cfg *config.AppConfig, emb domain.Embedder, log *zap.SugaredLogger, docs []string) (*corpus, error) {
	if len(docs) > 0 {
		ch, err := buildChunker(cfg)
		if err != nil {
			return nil, err
		}
		svc := ingest.NewService(ch, emb, summarizer.NewFrequencySummarizer(), cfg.Summarizer.MaxSentences, log)
		res, err := svc.Ingest(context.Background(), docs)
		if err != nil {
			return nil, err
		}
		return &corpus{index: res.Index, sparse: res.Sparse, summary: res.Summary}, nil
	}
	if cfg.Index.Type == "qdrant" {
		ix, err := buildQdrant(cfg, emb)
		if err != nil {
			return nil, err
		}
		return &corpus{index: ix}, nil
	}
	if cfg.Embedder.Type == "tfidf" || cfg.Embedder.Type == "" {
		return nil, fmt.Errorf("the tfidf embedder rebuilds its vocabulary per run; pass document paths on the command line")
	}
	ix, err := memory.LoadFile(cfg.Index.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("load index snapshot %s (run ingest first): %w", cfg.Index.SnapshotPath, err)
	}
	return &corpus{index: ix}, nil
}

// buildQdrant connects to the remote backend. The collection dimension
// comes from the embedder; remote embedders learn it from a probe call.
func buildQdrant(cfg *config.AppConfig, emb domain.Embedder) (*qdrant.Index, error) {
	if cfg.Index.Qdrant == nil {
		return nil, fmt.Errorf("qdrant config missing")
	}
	dim := emb.Dimension()
	if dim == 0 {
		vec, err := emb.Embed(context.Background(), "dimension probe")
		if err != nil {
			return nil, fmt.Errorf("probe embedding dimension: %w", err)
		}
		dim = len(vec)
	}
	return qdrant.New(qdrant.Config{
		URL:        cfg.Index.Qdrant.URL,
		APIKey:     cfg.Index.Qdrant.APIKey,
		Collection: cfg.Index.Qdrant.Collection,
		Timeout:    time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
	}, dim)
}

func buildPipeline(cfg *config.AppConfig, log *zap.SugaredLogger, docs []string) (*pipeline.Pipeline, *corpus, error) {
	emb, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("embedder init: %w", err)
	}
	c, err := loadCorpus(cfg, emb, log, docs)
	if err != nil {
		return nil, nil, err
	}
	gen, err := buildGenerator(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("generator init: %w", err)
	}
	r := retriever.New(emb, c.index, c.sparse, retrieverConfig(cfg), log)
	p := pipeline.New(emb, c.index, r, assemble.New(nil), gen, log)
	return p, c, nil
}

func retrieverConfig(cfg *config.AppConfig) retriever.Config {
	return retriever.Config{
		MinSimilarity: cfg.Retriever.MinSimilarity,
		Rerank:        cfg.Retriever.Rerank,
		Hybrid:        cfg.Retriever.Hybrid,
		DenseWeight:   cfg.Retriever.DenseWeight,
		SparseWeight:  cfg.Retriever.SparseWeight,
	}
}

func runHealth(cfg *config.AppConfig, log *zap.SugaredLogger, args []string, full bool) {
	p, _, err := buildPipeline(cfg, log, args)
	if err != nil {
		log.Errorf("pipeline init failed: %v", err)
		fmt.Printf("FAILED: %v\n", err)
		os.Exit(1)
	}
	report := p.CheckHealth(context.Background(), full)
	printStage("embedder", report.Embedder)
	printStage("index", report.Index)
	printStage("generator", report.Generator)
	if !report.OK {
		fmt.Println("overall: FAILED")
		os.Exit(1)
	}
	fmt.Println("overall: OK")
}

func printStage(name string, res domain.CheckResult) {
	line := fmt.Sprintf("%-10s %s", name, strings.ToUpper(string(res.Status)))
	if res.Detail != "" {
		line += "  (" + res.Detail + ")"
	}
	fmt.Println(line)
}

func runIngest(cfg *config.AppConfig, log *zap.SugaredLogger, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ragchat ingest file1.txt [file2.md ...]")
		os.Exit(2)
	}
	emb, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("embedder init: %v", err)
	}
	ch, err := buildChunker(cfg)
	if err != nil {
		log.Fatalf("chunker init: %v", err)
	}
	svc := ingest.NewService(ch, emb, summarizer.NewFrequencySummarizer(), cfg.Summarizer.MaxSentences, log)
	res, err := svc.Ingest(context.Background(), args)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	switch cfg.Index.Type {
	case "qdrant":
		remote, err := buildQdrant(cfg, emb)
		if err != nil {
			log.Fatalf("qdrant init: %v", err)
		}
		err = res.Index.Each(func(c domain.Chunk, vec []float64) error {
			// re-ingest of a surviving id needs an explicit delete first
			if err := remote.Delete(c.ID); err != nil {
				return err
			}
			return remote.Insert(c, vec)
		})
		if err != nil {
			log.Fatalf("push to qdrant: %v", err)
		}
		fmt.Printf("Ingested %d documents into %d chunks (dimension %d).\n", res.Documents, res.Chunks, res.Index.Dimension())
		fmt.Printf("Pushed to qdrant collection %q\n", cfg.Index.Qdrant.Collection)
	default:
		if err := res.Index.SaveFile(cfg.Index.SnapshotPath); err != nil {
			log.Fatalf("save snapshot: %v", err)
		}
		fmt.Printf("Ingested %d documents into %d chunks (dimension %d).\n", res.Documents, res.Chunks, res.Index.Dimension())
		fmt.Printf("Snapshot saved to %s\n", cfg.Index.SnapshotPath)
	}
	if res.Summary != "" {
		fmt.Printf("\nCorpus summary: %s\n", res.Summary)
	}
}

func runAsk(cfg *config.AppConfig, log *zap.SugaredLogger, args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	k := fs.Int("k", cfg.Retriever.TopK, "number of chunks to retrieve")
	budget := fs.Int("budget", cfg.Context.BudgetWords, "context budget in words")
	timeout := fs.Duration("timeout", time.Duration(cfg.Generator.TimeoutSecs)*time.Second, "generation timeout")
	docs := fs.String("docs", "", "comma-separated documents to ingest instead of loading the snapshot")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ragchat ask [-k N] [-budget N] [-timeout D] [-docs a.txt,b.txt] <question>")
		os.Exit(2)
	}
	question := strings.Join(fs.Args(), " ")

	var docPaths []string
	if *docs != "" {
		docPaths = strings.Split(*docs, ",")
	}
	p, _, err := buildPipeline(cfg, log, docPaths)
	if err != nil {
		log.Fatalf("pipeline init: %v", err)
	}
	answer, err := p.RetrieveAndAnswer(context.Background(), question, *k, *budget, *timeout)
	if err != nil {
		log.Fatalf("ask failed: %v", err)
	}
	fmt.Println(answer.Text)
	if len(answer.Citations) > 0 {
		fmt.Printf("\nGrounded on chunks: %s\n", strings.Join(answer.Citations, ", "))
	}
}

func runSearch(cfg *config.AppConfig, log *zap.SugaredLogger, args []string) {
	emb, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("embedder init: %v", err)
	}
	c, err := loadCorpus(cfg, emb, log, args)
	if err != nil {
		log.Fatalf("load corpus: %v", err)
	}
	r := retriever.New(emb, c.index, c.sparse, retrieverConfig(cfg), log)
	m := tui.New(r, c.summary, cfg.Retriever.TopK)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatalf("tui failed: %v", err)
	}
}
