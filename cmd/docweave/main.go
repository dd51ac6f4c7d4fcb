package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/docweave/internal/assets"
	"github.com/dgallion1/docweave/internal/builder"
	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/field"
	"github.com/dgallion1/docweave/internal/parser"
	"github.com/dgallion1/docweave/internal/units"
)

const usage = `Usage: docweave <command> [arguments]

Commands:
  render   -template t.yaml [-data d.json] [-out out.docx] [-html out.html]
  outline  [-json] file.docx
  import   [-out t.json] file.(md|txt|html|docx)
`

var errUsage = errors.New("usage")

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if err := run(os.Args[1:], os.Stdout, log); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "docweave: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, log *slog.Logger) error {
	if len(args) < 1 {
		return errUsage
	}
	switch args[0] {
	case "render":
		return runRender(args[1:], stdout, log)
	case "outline":
		return runOutline(args[1:], stdout)
	case "import":
		return runImport(args[1:], stdout)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func runRender(args []string, stdout io.Writer, log *slog.Logger) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	tmplPath := fs.String("template", "", "template file (.json, .yaml)")
	dataPath := fs.String("data", "", "data file (.json, .yaml, .csv)")
	out := fs.String("out", "", "docx output file")
	htmlOut := fs.String("html", "", "HTML page output file")
	font := fs.String("font", "宋体", "default font")
	size := fs.String("size", "五号", "default size in points or a named size")
	fetch := fs.Bool("fetch", true, "download remote images")
	timeout := fs.Duration("timeout", assets.DefaultTimeout, "image download timeout")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *tmplPath == "" || (*out == "" && *htmlOut == "") {
		return fmt.Errorf("%w: render needs -template and -out or -html", errUsage)
	}

	tmpl, err := content.Load(*tmplPath)
	if err != nil {
		return err
	}
	data := field.Map{}
	if *dataPath != "" {
		f, err := os.Open(*dataPath)
		if err != nil {
			return fmt.Errorf("open data: %w", err)
		}
		data, err = parser.LoadData(f, *dataPath)
		f.Close()
		if err != nil {
			return err
		}
	}
	defSize, err := units.ParseFontSize(*size)
	if err != nil {
		return err
	}

	b := builder.New(log).SetDefaultFont(*font).SetDefaultSize(defSize).Load(tmpl)
	if *fetch {
		client := assets.NewClient(*timeout)
		defer client.Close()
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		if err := b.Preload(ctx, client); err != nil {
			return err
		}
	}

	if *out != "" {
		var buf bytes.Buffer
		if err := b.RenderTo(&buf, data); err != nil {
			return err
		}
		if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write docx: %w", err)
		}
		fmt.Fprintf(stdout, "Document written to %s\n", *out)
	}
	if *htmlOut != "" {
		if err := os.WriteFile(*htmlOut, []byte(b.RenderPage(data)), 0o644); err != nil {
			return fmt.Errorf("write html: %w", err)
		}
		fmt.Fprintf(stdout, "Preview written to %s\n", *htmlOut)
	}
	return nil
}

func runOutline(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("outline", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the outline as JSON")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat docx: %w", err)
	}

	entries, err := parser.Outline(f, info.Size())
	if err != nil {
		return err
	}
	if *asJSON {
		if entries == nil {
			entries = []parser.OutlineEntry{}
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "%s%s\n", strings.Repeat("  ", e.Level-1), e.Text)
	}
	return nil
}

func runImport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	out := fs.String("out", "", "template output file (stdout if empty)")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	path := fs.Arg(0)

	imp, err := parser.ForFile(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	tmpl, err := imp.Import(f, path)
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(tmpl, "", "  ")
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}
	encoded = append(encoded, '\n')

	if *out == "" {
		_, err = stdout.Write(encoded)
		return err
	}
	if err := os.WriteFile(*out, encoded, 0o644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	fmt.Fprintf(stdout, "Template written to %s\n", *out)
	return nil
}
