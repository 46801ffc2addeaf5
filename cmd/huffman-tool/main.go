// huffman-tool compresses and inspects text files with the hufftool codec.
package main

import (
	"fmt"
	"io"
	"os"

	logging "github.com/op/go-logging"
	"github.com/urfave/cli/v2"

	hufftool "github.com/bshind87/Huffman-tool"
	"github.com/bshind87/Huffman-tool/huffman"
	"github.com/bshind87/Huffman-tool/pager"
	"github.com/bshind87/Huffman-tool/report"
	"github.com/bshind87/Huffman-tool/token"
	"github.com/bshind87/Huffman-tool/viz"
)

var log = logging.MustGetLogger("huffman-tool")

func main() {
	app := &cli.App{
		Name:  "huffman-tool",
		Usage: "lossless Huffman text compression with random-access chunks",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
		},
		Before: func(ctx *cli.Context) error {
			setupLogging(ctx.Bool("verbose"))
			return nil
		},
		Commands: []*cli.Command{
			compressCommand,
			decompressCommand,
			chunkedCommand,
			streamCommand,
			pageCommand,
			reportCommand,
			dotCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatter := logging.MustStringFormatter(`%{time:15:04:05.000} %{level:.4s} %{message}`)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, formatter))
	if verbose {
		leveled.SetLevel(logging.DEBUG, "")
	} else {
		leveled.SetLevel(logging.INFO, "")
	}
	logging.SetBackend(leveled)
}

var (
	inputFlag = &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "input file",
		Required: true,
	}
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output file (defaults derive from the input name)",
	}
	modeFlag = &cli.StringFlag{
		Name:    "mode",
		Aliases: []string{"m"},
		Usage:   "tokenization mode: char or word",
		Value:   "char",
	}
	indexFlag = &cli.StringFlag{
		Name:  "index",
		Usage: "index file",
	}
	chunkFlag = &cli.IntFlag{
		Name:     "chunk",
		Usage:    "chunk number to decode",
		Required: true,
	}
)

var compressCommand = &cli.Command{
	Name:  "compress",
	Usage: "compress a text file with a single codebook",
	Flags: []cli.Flag{
		inputFlag, outputFlag, modeFlag,
		&cli.StringFlag{Name: "meta", Usage: "metadata file (default <output>.meta)"},
	},
	Action: func(ctx *cli.Context) error {
		mode, err := token.ParseMode(ctx.String("mode"))
		if err != nil {
			return err
		}
		in := ctx.String("input")
		text, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		artifact, meta, err := hufftool.Compress(string(text), mode)
		if err != nil {
			return err
		}

		out := orDefault(ctx.String("output"), in+".huf")
		metaPath := orDefault(ctx.String("meta"), out+".meta")
		if err := os.WriteFile(out, artifact, 0o644); err != nil {
			return err
		}
		if err := writeContainer(metaPath, meta); err != nil {
			return err
		}
		log.Infof("compressed %d bytes into %d (%s), %d tokens, %d symbols",
			len(text), len(artifact), ratio(len(artifact), len(text)), meta.TotalTokens, meta.Freq.Len())
		log.Debugf("artifact %s, metadata %s", out, metaPath)
		return nil
	},
}

var decompressCommand = &cli.Command{
	Name:  "decompress",
	Usage: "restore a compressed file",
	Flags: []cli.Flag{
		inputFlag, outputFlag,
		&cli.StringFlag{Name: "meta", Usage: "metadata file (default <input>.meta)"},
	},
	Action: func(ctx *cli.Context) error {
		in := ctx.String("input")
		artifact, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		var meta hufftool.Metadata
		if err := readContainer(orDefault(ctx.String("meta"), in+".meta"), &meta); err != nil {
			return err
		}
		text, err := hufftool.Decompress(artifact, &meta)
		if err != nil {
			return err
		}
		out := orDefault(ctx.String("output"), in+".txt")
		if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
			return err
		}
		log.Infof("restored %d bytes to %s", len(text), out)
		return nil
	},
}

var chunkedCommand = &cli.Command{
	Name:  "chunked",
	Usage: "chunked compression with per-chunk codebooks and random access",
	Subcommands: []*cli.Command{
		{
			Name:  "compress",
			Usage: "compress into fixed token-count chunks",
			Flags: []cli.Flag{
				inputFlag, outputFlag, modeFlag, indexFlag,
				&cli.IntFlag{Name: "chunk-tokens", Usage: "tokens per chunk", Value: hufftool.DefaultChunkTokens},
			},
			Action: func(ctx *cli.Context) error {
				mode, err := token.ParseMode(ctx.String("mode"))
				if err != nil {
					return err
				}
				in := ctx.String("input")
				text, err := os.ReadFile(in)
				if err != nil {
					return err
				}
				artifact, idx, err := hufftool.CompressChunked(string(text), mode, ctx.Int("chunk-tokens"))
				if err != nil {
					return err
				}

				out := orDefault(ctx.String("output"), in+".huf")
				idxPath := orDefault(ctx.String("index"), out+".idx")
				if err := os.WriteFile(out, artifact, 0o644); err != nil {
					return err
				}
				if err := writeContainer(idxPath, idx); err != nil {
					return err
				}
				log.Infof("compressed %d bytes into %d (%s), %d chunks, %d tokens",
					len(text), len(artifact), ratio(len(artifact), len(text)), idx.Len(), idx.TotalTokens)
				return nil
			},
		},
		{
			Name:  "get",
			Usage: "decode a single chunk and print it",
			Flags: []cli.Flag{inputFlag, indexFlag, chunkFlag},
			Action: func(ctx *cli.Context) error {
				artifact, idx, err := loadChunked(ctx)
				if err != nil {
					return err
				}
				fragment, err := hufftool.DecompressChunk(artifact, idx, ctx.Int("chunk"))
				if err != nil {
					return err
				}
				_, err = io.WriteString(os.Stdout, fragment)
				return err
			},
		},
		{
			Name:  "decompress",
			Usage: "restore the whole file from its chunks",
			Flags: []cli.Flag{inputFlag, outputFlag, indexFlag},
			Action: func(ctx *cli.Context) error {
				artifact, idx, err := loadChunked(ctx)
				if err != nil {
					return err
				}
				text, err := hufftool.DecompressChunked(artifact, idx)
				if err != nil {
					return err
				}
				out := orDefault(ctx.String("output"), ctx.String("input")+".txt")
				if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
					return err
				}
				log.Infof("restored %d bytes from %d chunks to %s", len(text), idx.Len(), out)
				return nil
			},
		},
	},
}

var streamCommand = &cli.Command{
	Name:  "stream",
	Usage: "two-pass compression with one global codebook and size-targeted chunks",
	Subcommands: []*cli.Command{
		{
			Name:  "compress",
			Usage: "compress a file without loading it whole",
			Flags: []cli.Flag{
				inputFlag, outputFlag, modeFlag, indexFlag,
				&cli.IntFlag{Name: "target-bytes", Usage: "chunk size target in bytes", Value: hufftool.DefaultTargetChunkBytes},
			},
			Action: func(ctx *cli.Context) error {
				mode, err := token.ParseMode(ctx.String("mode"))
				if err != nil {
					return err
				}
				in := ctx.String("input")
				src, err := os.Open(in)
				if err != nil {
					return err
				}
				defer src.Close()

				out := orDefault(ctx.String("output"), in+".huf")
				dst, err := os.Create(out)
				if err != nil {
					return err
				}
				idx, err := hufftool.CompressStream(dst, src, mode, ctx.Int("target-bytes"))
				if err != nil {
					dst.Close()
					return err
				}
				if err := dst.Close(); err != nil {
					return err
				}

				idxPath := orDefault(ctx.String("index"), out+".idx")
				if err := writeContainer(idxPath, idx); err != nil {
					return err
				}
				log.Infof("compressed %s into %d chunks, %d tokens, %d symbols",
					in, idx.Len(), idx.TotalTokens, idx.Freq.Len())
				return nil
			},
		},
		{
			Name:  "get",
			Usage: "decode a single chunk and print it",
			Flags: []cli.Flag{inputFlag, indexFlag, chunkFlag},
			Action: func(ctx *cli.Context) error {
				artifact, idx, err := loadStream(ctx)
				if err != nil {
					return err
				}
				fragment, err := hufftool.DecompressStreamChunk(artifact, idx, ctx.Int("chunk"))
				if err != nil {
					return err
				}
				_, err = io.WriteString(os.Stdout, fragment)
				return err
			},
		},
		{
			Name:  "decompress",
			Usage: "restore the whole file",
			Flags: []cli.Flag{inputFlag, outputFlag, indexFlag},
			Action: func(ctx *cli.Context) error {
				artifact, idx, err := loadStream(ctx)
				if err != nil {
					return err
				}
				out := orDefault(ctx.String("output"), ctx.String("input")+".txt")
				dst, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := hufftool.DecompressStream(dst, artifact, idx); err != nil {
					dst.Close()
					return err
				}
				if err := dst.Close(); err != nil {
					return err
				}
				log.Infof("restored %d chunks to %s", idx.Len(), out)
				return nil
			},
		},
	},
}

var pageCommand = &cli.Command{
	Name:  "page",
	Usage: "print one page of a chunked artifact",
	Flags: []cli.Flag{
		inputFlag, indexFlag,
		&cli.IntFlag{Name: "page", Usage: "page number to print", Required: true},
		&cli.IntFlag{Name: "page-tokens", Usage: "tokens per page", Value: pager.DefaultPageTokens},
	},
	Action: func(ctx *cli.Context) error {
		artifact, idx, err := loadChunked(ctx)
		if err != nil {
			return err
		}
		p, err := pager.New(artifact, idx, pager.WithPageTokens(ctx.Int("page-tokens")))
		if err != nil {
			return err
		}
		text, err := p.Page(ctx.Int("page"))
		if err != nil {
			return err
		}
		log.Debugf("page %d of %d", ctx.Int("page"), p.PageCount())
		_, err = io.WriteString(os.Stdout, text)
		return err
	},
}

var reportCommand = &cli.Command{
	Name:  "report",
	Usage: "print the code table a file would compress with",
	Flags: []cli.Flag{inputFlag, outputFlag, modeFlag},
	Action: func(ctx *cli.Context) error {
		book, err := buildCodebook(ctx)
		if err != nil {
			return err
		}
		dst, done, err := outputWriter(ctx)
		if err != nil {
			return err
		}
		defer done()
		return report.Write(dst, book.Freq(), book.Codes())
	},
}

var dotCommand = &cli.Command{
	Name:  "dot",
	Usage: "print the Huffman tree of a file as Graphviz DOT",
	Flags: []cli.Flag{inputFlag, outputFlag, modeFlag},
	Action: func(ctx *cli.Context) error {
		book, err := buildCodebook(ctx)
		if err != nil {
			return err
		}
		dst, done, err := outputWriter(ctx)
		if err != nil {
			return err
		}
		defer done()
		return viz.WriteDOT(dst, book.Tree())
	},
}

func buildCodebook(ctx *cli.Context) (*huffman.Codebook, error) {
	mode, err := token.ParseMode(ctx.String("mode"))
	if err != nil {
		return nil, err
	}
	text, err := os.ReadFile(ctx.String("input"))
	if err != nil {
		return nil, err
	}
	tokens, err := token.Tokenize(string(text), mode)
	if err != nil {
		return nil, err
	}
	return huffman.NewCodebook(huffman.CountSymbols(tokens))
}

func loadChunked(ctx *cli.Context) ([]byte, *hufftool.Index, error) {
	in := ctx.String("input")
	artifact, err := os.ReadFile(in)
	if err != nil {
		return nil, nil, err
	}
	var idx hufftool.Index
	if err := readContainer(orDefault(ctx.String("index"), in+".idx"), &idx); err != nil {
		return nil, nil, err
	}
	return artifact, &idx, nil
}

func loadStream(ctx *cli.Context) ([]byte, *hufftool.StreamIndex, error) {
	in := ctx.String("input")
	artifact, err := os.ReadFile(in)
	if err != nil {
		return nil, nil, err
	}
	var idx hufftool.StreamIndex
	if err := readContainer(orDefault(ctx.String("index"), in+".idx"), &idx); err != nil {
		return nil, nil, err
	}
	return artifact, &idx, nil
}

func writeContainer(path string, src io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := src.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readContainer(path string, dst io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = dst.ReadFrom(f)
	return err
}

func outputWriter(ctx *cli.Context) (io.Writer, func() error, error) {
	out := ctx.String("output")
	if out == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(out)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func ratio(coded, raw int) string {
	if raw == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(coded)/float64(raw)*100)
}
