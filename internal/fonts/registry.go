package fonts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrUnsupportedProvider is returned for registry fonts that are not served
// by the Google font loader.
var ErrUnsupportedProvider = errors.New("unsupported font provider")

// RegistryItemType is the registry item type that carries a font.
const RegistryItemType = "registry:font"

// RegistryItem is the subset of a component-registry item fontmod reads.
type RegistryItem struct {
	Name string        `json:"name"`
	Type string        `json:"type"`
	Font *RegistryFont `json:"font,omitempty"`
}

// RegistryFont is the font block of a registry:font item.
type RegistryFont struct {
	Family   string   `json:"family"`
	Provider string   `json:"provider"`
	Import   string   `json:"import"`
	Variable string   `json:"variable"`
	Subsets  []string `json:"subsets,omitempty"`
	Weight   []string `json:"weight,omitempty"`
}

// Request converts the registry font into a FontRequest.
// Subsets default to latin, matching the registry's own default.
func (f RegistryFont) Request() (FontRequest, error) {
	if f.Provider != "" && f.Provider != "google" {
		return FontRequest{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedProvider, f.Provider, f.Import)
	}
	req := FontRequest{
		ImportSymbol: f.Import,
		CSSVariable:  f.Variable,
		Subsets:      f.Subsets,
		Weights:      f.Weight,
	}
	if len(req.Subsets) == 0 {
		req.Subsets = []string{"latin"}
	}
	if err := req.Validate(); err != nil {
		return FontRequest{}, err
	}
	return req, nil
}

// DecodeRegistryItem parses one registry item and returns its font request.
func DecodeRegistryItem(data []byte) (FontRequest, error) {
	var item RegistryItem
	if err := json.Unmarshal(data, &item); err != nil {
		return FontRequest{}, fmt.Errorf("decode registry item: %w", err)
	}
	if item.Type != RegistryItemType {
		return FontRequest{}, fmt.Errorf("%w: item %q has type %q, want %s", ErrInvalidRequest, item.Name, item.Type, RegistryItemType)
	}
	if item.Font == nil {
		return FontRequest{}, fmt.Errorf("%w: item %q has no font block", ErrInvalidRequest, item.Name)
	}
	return item.Font.Request()
}

// LoadRegistryItems reads registry item files in order.
func LoadRegistryItems(paths ...string) ([]FontRequest, error) {
	reqs := make([]FontRequest, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read registry item: %w", err)
		}
		req, err := DecodeRegistryItem(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
