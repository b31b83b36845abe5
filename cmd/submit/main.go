// Command submit uploads a scanned document into the pipeline and publishes
// the processing event the worker consumes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/paperledger/docpipe/internal/bootstrap"
	"github.com/paperledger/docpipe/internal/config"
	"github.com/paperledger/docpipe/internal/core/domain"
	"github.com/paperledger/docpipe/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()

	var (
		tenantID     = flag.String("tenant", "", "tenant identifier")
		docType      = flag.String("type", "", "document type: vendor_invoice or customer_invoice")
		vendorName   = flag.String("vendor", "", "vendor name, if known")
		customerName = flag.String("customer", "", "customer name, if known")
		amount       = flag.Float64("amount", 0, "document amount, if known")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: submit [flags] <file>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := config.Load()
	logger := logging.NewJSONLogger("docpipe-submit", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	meta := domain.DocumentMetadata{
		Filename:     filepath.Base(path),
		MimeType:     guessMimeType(path),
		TenantID:     *tenantID,
		DocumentType: domain.DocumentType(*docType),
		VendorName:   *vendorName,
		CustomerName: *customerName,
	}
	if *amount > 0 {
		meta.Amount = amount
	}

	doc, err := app.IngestUC.Upload(ctx, meta, f)
	if err != nil {
		log.Fatalf("upload error: %v", err)
	}
	fmt.Printf("submitted %s as document %s\n", meta.Filename, doc.ID)
}

func guessMimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
