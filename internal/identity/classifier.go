package identity

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"docsort/internal/docs"
	"docsort/internal/logging"
)

// Classifier extracts a document number and type from a file. A missing or
// ambiguous number is reported as the sentinel; an unrecognized type as
// Unknown. Implementations must not fail loudly: any extraction trouble
// resolves to the sentinel identity.
type Classifier interface {
	Classify(ctx context.Context, path string) (docNumber string, docType docs.DocumentType)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, path string) (string, docs.DocumentType)

func (f ClassifierFunc) Classify(ctx context.Context, path string) (string, docs.DocumentType) {
	return f(ctx, path)
}

// PathPlaceholder in a command argument is replaced with the file path.
const PathPlaceholder = "{}"

// CommandClassifier shells out to an external text-extraction tool (OCR or
// PDF text dump) and classifies whatever the tool prints on stdout. The
// file path replaces the "{}" placeholder in the argument list, or is
// appended when no placeholder is present.
type CommandClassifier struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewCommandClassifier builds a classifier around the given command line.
func NewCommandClassifier(command string, args []string, timeout time.Duration, logger *slog.Logger) *CommandClassifier {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &CommandClassifier{
		command: strings.TrimSpace(command),
		args:    append([]string{}, args...),
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "classifier"),
	}
}

func (c *CommandClassifier) Classify(ctx context.Context, path string) (string, docs.DocumentType) {
	if c.command == "" {
		return docs.SentinelName, docs.TypeUnknown
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := make([]string, 0, len(c.args)+1)
	substituted := false
	for _, arg := range c.args {
		if arg == PathPlaceholder {
			args = append(args, path)
			substituted = true
			continue
		}
		args = append(args, arg)
	}
	if !substituted {
		args = append(args, path)
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(runCtx, c.command, args...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		c.logger.Warn("text extraction failed; identity falls back to sentinel",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
		)
		return docs.SentinelName, docs.TypeUnknown
	}

	text := stdout.String()
	return ExtractDocNumber(text), ClassifyText(text)
}

// ClassifyText maps extracted text onto a document type by keyword.
func ClassifyText(text string) docs.DocumentType {
	t := strings.ToUpper(text)
	switch {
	case strings.Contains(t, "TAX INVOICE"):
		return docs.TypeTaxInvoice
	case strings.Contains(t, "PROFORMA"):
		return docs.TypeProforma
	case strings.Contains(t, "CREDIT") && strings.Contains(t, "NOTE"):
		return docs.TypeCredit
	case strings.Contains(t, "PURCHASE ORDER"):
		return docs.TypeOrder
	case strings.Contains(t, "TRANSFER"):
		return docs.TypeTransfer
	default:
		return docs.TypeUnknown
	}
}

// docNumberSampleLimit bounds how much of the text is searched; document
// numbers live on the first page header in practice.
const docNumberSampleLimit = 4000

var docNumberPattern = regexp.MustCompile(
	`(?i)\b(?:INVOICE\s*(?:NO|NUMBER)|INV\s*(?:NO|#)|DOCUMENT\s*(?:NO|NUMBER)|DOC\s*(?:NO|#))\s*[:\-]?\s*([A-Za-z0-9][A-Za-z0-9\-_/]{2,})\b`,
)

// ExtractDocNumber returns the document number named in the text, or the
// sentinel when no candidate, or more than one distinct candidate, appears.
func ExtractDocNumber(text string) string {
	if text == "" {
		return docs.SentinelName
	}
	sample := text
	if len(sample) > docNumberSampleLimit {
		sample = sample[:docNumberSampleLimit]
	}

	candidates := map[string]struct{}{}
	for _, match := range docNumberPattern.FindAllStringSubmatch(sample, -1) {
		candidate := strings.TrimRight(strings.TrimSpace(match[1]), ".:")
		if candidate != "" {
			candidates[candidate] = struct{}{}
		}
	}
	if len(candidates) != 1 {
		return docs.SentinelName
	}
	for candidate := range candidates {
		return candidate
	}
	return docs.SentinelName
}
