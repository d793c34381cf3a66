package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dino-analyzer/internal/analyzer"
	"dino-analyzer/internal/llm"
	"dino-analyzer/internal/llm/gemini"
	"dino-analyzer/internal/shared/config"
	"dino-analyzer/internal/shared/telemetry"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, nil))
}

// run analyzes one image file. client nil selects Gemini.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, client llm.Client) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "❌ Ошибка конфигурации: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("dino-analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	imagePath := fs.String("image", "", "Path to the figurine photo (png, jpg, jpeg)")
	apiKey := fs.String("api-key", "", "Gemini API key (overrides GEMINI_API_KEY)")
	model := fs.String("model", cfg.GeminiModel, "Gemini model")
	asJSON := fs.Bool("json", false, "Print the result as JSON instead of the framed report")
	quiet := fs.Bool("quiet", true, "Suppress JSON log lines on stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *quiet {
		restore := telemetry.SetOutput(io.Discard)
		defer restore()
	}

	path := strings.TrimSpace(*imagePath)
	if path == "" {
		fmt.Fprint(stderr, "Введите путь к изображению динозавра: ")
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(stderr, "read path: %v\n", err)
			return 1
		}
		path = strings.TrimSpace(line)
	}
	if path == "" {
		fmt.Fprintln(stderr, "Путь к изображению не указан")
		return 1
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Файл %s не найден или недоступен: %v\n", path, err)
		return 1
	}

	cfg.GeminiModel = strings.TrimSpace(*model)
	if client == nil {
		gc, err := gemini.NewClient(cfg.GeminiModel, cfg.Temperature)
		if err != nil {
			fmt.Fprintf(stderr, "❌ Ошибка конфигурации: %v\n", err)
			return 1
		}
		client = gc
	}
	svc := analyzer.NewService(cfg, client)

	fmt.Fprintln(stderr, "🔍 Анализируем изображение...")
	out, err := svc.Analyze(ctx, analyzer.Input{
		Image:    data,
		FileName: filepath.Base(path),
		APIKey:   *apiKey,
	})
	if err != nil {
		_, _, message, hint := analyzer.Classify(err)
		fmt.Fprintf(stderr, "❌ %s\n💡 %s\n", message, hint)
		return 1
	}

	if *asJSON {
		payload, err := out.Info.JSON()
		if err != nil {
			fmt.Fprintf(stderr, "encode result: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, string(payload))
		return 0
	}
	fmt.Fprint(stdout, out.Info.Report())
	return 0
}
