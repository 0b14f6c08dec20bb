package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jojospausch-web/redact-clinical-german/internal/config"
	"github.com/jojospausch-web/redact-clinical-german/internal/service"
	"github.com/jojospausch-web/redact-clinical-german/internal/template"
)

func main() {
	output := flag.String("output", "", "output path (default <input>_anonymized.pdf)")
	templatePath := flag.String("template", "", "anonymization template JSON (default from TEMPLATE_PATH)")
	extractImages := flag.Bool("extract-images", false, "extract page images and anonymized copies")
	shiftDays := flag.Int("shift-days", 0, "fixed date shift in days (0 picks a random offset)")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <input.pdf>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}
	if *verbose {
		os.Setenv("LOG_LEVEL", "debug")
	}

	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	tpl := container.Template
	if *templatePath != "" {
		tpl, err = template.Load(*templatePath)
		if err != nil {
			container.Logger.Error("Template load failed", err, "path", *templatePath)
			os.Exit(1)
		}
	}

	outPath := *output
	if outPath == "" {
		outPath = strings.TrimSuffix(input, ".pdf") + "_anonymized.pdf"
	}

	req := service.AnonymizeRequest{
		InputPath:     input,
		OutputPath:    outPath,
		Template:      tpl,
		ExtractImages: *extractImages,
	}
	if *shiftDays != 0 {
		req.ShiftDays = shiftDays
	}

	result, err := container.AnonymizeService.Anonymize(req)
	if err != nil {
		container.Logger.Error("Anonymization failed", err, "input", input)
		os.Exit(1)
	}

	fmt.Printf("Redacted document written to %s\n", result.OutputPath)
	fmt.Printf("  pages: %d\n", result.Stats.TotalPages)
	fmt.Printf("  zones redacted: %d\n", result.Stats.ZonesRedacted)
	fmt.Printf("  PII entities: %d\n", result.Stats.PIIEntitiesFound)
	fmt.Printf("  dates shifted: %d\n", result.Stats.DatesShifted)
	if *extractImages {
		fmt.Printf("  images extracted: %d\n", result.Stats.ImagesExtracted)
	}
}
