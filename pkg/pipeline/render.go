package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"

	"github.com/matzehuels/forcelayout/pkg/errors"
	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/render"
	"github.com/matzehuels/forcelayout/pkg/render/nodelink"
)

// Render generates output artifacts for a laid-out graph in the requested formats.
func Render(ctx context.Context, g *graph.Stable, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: opts.Detailed})
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, opts.Scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		case FormatDOT:
			data = []byte(dot)
		case FormatJSON:
			data, err = encodeGraph(g, graph.FormatJSON)
		case FormatYAML:
			data, err = encodeGraph(g, graph.FormatYAML)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			if stderrors.Is(err, render.ErrConverterMissing) {
				return nil, errors.Wrap(errors.ErrCodeUnsupported, err, "render %s", format)
			}
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func encodeGraph(g *graph.Stable, format graph.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := graph.Write(g, &buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
