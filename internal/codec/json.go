package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"
)

// DecodeSnapshot reads a JSON element list and indexes it into a snapshot.
func DecodeSnapshot(r io.Reader) (*domain.Snapshot, error) {
	elements, err := DecodeElements(r)
	if err != nil {
		return nil, err
	}
	return domain.NewSnapshot(elements), nil
}

// DecodeElements reads a raw JSON element list.
func DecodeElements(r io.Reader) ([]domain.Element, error) {
	var elements []domain.Element
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&elements); err != nil {
		return nil, fmt.Errorf("failed to parse element list: %w", err)
	}
	return elements, nil
}

// EncodeElements writes an element list as indented JSON.
func EncodeElements(elements []domain.Element, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(elements); err != nil {
		return fmt.Errorf("failed to encode element list: %w", err)
	}

	return nil
}
