package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/0xmhha/bitquery-go/client"
	"github.com/0xmhha/bitquery-go/internal/config"
	"github.com/0xmhha/bitquery-go/internal/logger"
	"github.com/0xmhha/bitquery-go/networks"
	"github.com/0xmhha/bitquery-go/query"
	"github.com/0xmhha/bitquery-go/response"
	"github.com/0xmhha/bitquery-go/templates"
)

var (
	// Version information (injected at build time)
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to configuration file (YAML)")
		envFile     = flag.String("env", ".env", "Path to .env file")
		showVersion = flag.Bool("version", false, "Show version information and exit")
		list        = flag.Bool("list", false, "List available templates and exit")
		printOnly   = flag.Bool("print", false, "Print the query document without sending it")
		validate    = flag.Bool("validate", false, "Check the document's GraphQL syntax before sending")
		extract     = flag.String("extract", "", "Comma-separated dotted paths to print instead of the full response")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
		logFormat   = flag.String("log-format", "", "Log format (json, console)")

		// Query source
		templateName = flag.String("template", "", "Template name (see -list)")
		queryFile    = flag.String("file", "", "Path to a .graphql file to send instead of a template")
		varsJSON     = flag.String("vars", "", "JSON object of variables for -file")

		// Template arguments
		args templates.Args
	)
	flag.StringVar(&args.Address, "address", "", "Wallet, token, contract or collection address")
	flag.StringVar(&args.Network, "network", "", "Network selection field (default ethereum)")
	flag.IntVar(&args.Limit, "limit", 0, "Maximum number of results (0 uses the template default)")
	flag.StringVar(&args.From, "from", "", "Start of the date range (ISO 8601)")
	flag.StringVar(&args.To, "to", "", "End of the date range (ISO 8601)")
	flag.StringVar(&args.Interval, "interval", "", "Time interval for analytics templates")
	flag.StringVar(&args.QuoteSymbol, "quote", "", "Quote currency symbol for price history")
	flag.StringVar(&args.EventSignature, "event", "", "Event signature filter")
	flag.StringVar(&args.TokenType, "token-type", "", "NFT token type filter (ERC721, ERC1155)")
	flag.StringVar(&args.TokenID, "token-id", "", "NFT token id filter")
	flag.StringVar(&args.CollectionAddress, "collection", "", "NFT collection address filter")
	flag.StringVar(&args.Protocol, "protocol", "", "DEX or lending protocol filter")
	flag.StringVar(&args.TokenAddress, "token", "", "Token address filter")

	flag.Parse()

	if *showVersion {
		fmt.Printf("bitquery version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", buildTime)
		os.Exit(0)
	}

	if *list {
		for _, name := range templates.Names() {
			fmt.Println(name)
		}
		os.Exit(0)
	}

	doc, err := buildDocument(*templateName, *queryFile, *varsJSON, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build query: %v\n", err)
		os.Exit(2)
	}

	if *validate {
		if err := query.Validate(doc); err != nil {
			fmt.Fprintf(os.Stderr, "Query failed validation: %v\n", err)
			os.Exit(2)
		}
	}

	if *printOnly {
		printJSON(doc)
		os.Exit(0)
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*configFile, *logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	logArgs(log, args)

	c, err := client.NewClient(newClientConfig(cfg, log))
	if err != nil {
		log.Fatal("Failed to create Bitquery client", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithLogger(ctx, log)

	env, err := c.Query(ctx, doc)
	if err != nil {
		log.Error("Query failed", zap.Error(err))
		os.Exit(1)
	}

	if *extract != "" {
		printJSON(response.ExtractFields(env, splitPaths(*extract)))
	} else {
		printJSON(env)
	}

	if !env.Success {
		os.Exit(1)
	}
}

// buildDocument picks the query source: a .graphql file or a named template
func buildDocument(templateName, queryFile, varsJSON string, args templates.Args) (query.Document, error) {
	switch {
	case queryFile != "" && templateName != "":
		return query.Document{}, fmt.Errorf("use either -template or -file, not both")
	case queryFile != "":
		text, err := templates.LoadQueryFromFile(queryFile)
		if err != nil {
			return query.Document{}, err
		}
		vars := map[string]any{}
		if varsJSON != "" {
			if err := json.Unmarshal([]byte(varsJSON), &vars); err != nil {
				return query.Document{}, fmt.Errorf("invalid -vars: %w", err)
			}
		}
		return query.Document{Query: text, Variables: vars}, nil
	case templateName != "":
		return templates.ByName(templateName, args)
	default:
		return query.Document{}, fmt.Errorf("one of -template or -file is required (available templates: %s)",
			strings.Join(templates.Names(), ", "))
	}
}

func loadConfig(configFile, logLevel, logFormat string) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg, nil
}

func newClientConfig(cfg *config.Config, log *zap.Logger) *client.Config {
	maxRetries := cfg.Retry.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}
	return &client.Config{
		ClientID:     cfg.Bitquery.ClientID,
		ClientSecret: cfg.Bitquery.ClientSecret,
		Endpoint:     cfg.Bitquery.Endpoint,
		TokenURL:     cfg.Bitquery.TokenURL,
		MaxRetries:   maxRetries,
		RetryDelay:   cfg.Retry.Delay,
		Timeout:      cfg.Bitquery.Timeout,
		Logger:       log,
		Metrics:      client.NewMetrics(prometheus.NewRegistry()),
	}
}

// logArgs logs what is known about the target network and address
func logArgs(log *zap.Logger, args templates.Args) {
	if n, ok := networks.Lookup(args.Network); ok {
		log.Info("Using network",
			zap.String("id", n.ID),
			zap.String("name", n.Name),
			zap.String("currency", n.Currency))
	}
	if args.Address == "" {
		return
	}
	checksummed, err := networks.ChecksumAddress(args.Address)
	if err != nil {
		log.Warn("Address is not a 20-byte hex address", zap.String("address", args.Address))
		return
	}
	log.Debug("Querying address", zap.String("address", checksummed))
}

func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
	}
}
