package pipeline

import (
	"bytes"
	stderrors "errors"
	"io/fs"

	"github.com/matzehuels/forcelayout/pkg/errors"
	"github.com/matzehuels/forcelayout/pkg/graph"
)

// Parse reads the graph file named by opts.Input.
func Parse(opts Options) (*graph.Stable, error) {
	opts.SetLayoutDefaults()
	if err := errors.ValidatePath(opts.Input); err != nil {
		return nil, err
	}
	g, err := graph.ReadFile(opts.Input, opts.Placement())
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s", opts.Input)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "read graph %s", opts.Input)
	}
	return g, nil
}

// ParseBytes decodes a graph document held in memory, as received by the API.
func ParseBytes(data []byte, format graph.Format, opts Options) (*graph.Stable, error) {
	opts.SetLayoutDefaults()
	g, err := graph.Read(bytes.NewReader(data), format, opts.Placement())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "decode graph")
	}
	return g, nil
}
