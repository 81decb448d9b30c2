// Package predictor provides the external predictor backends used by the
// estimator: model descriptors loaded from disk, a remote scoring client and
// the cached resource that hands them out.
package predictor

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/medcost/internal/domain/estimator"
)

// Model kinds understood by Build.
const (
	KindLinear = "linear"
	KindCEL    = "cel"
	KindRemote = "remote"
)

// Coefficients weights each encoded feature of a linear model.
// Sex and Smoker multiply 1 for male/smoker and 0 otherwise.
type Coefficients struct {
	Age      float64 `koanf:"age"`
	Sex      float64 `koanf:"sex"`
	BMI      float64 `koanf:"bmi"`
	Children float64 `koanf:"children"`
	Smoker   float64 `koanf:"smoker"`
}

// Descriptor is the on-disk description of a model. Floor, when set, is the
// lowest charge a linear model returns.
type Descriptor struct {
	Kind          string             `koanf:"kind"`
	Name          string             `koanf:"name"`
	Intercept     float64            `koanf:"intercept"`
	Coefficients  Coefficients       `koanf:"coefficients"`
	RegionOffsets map[string]float64 `koanf:"region_offsets"`
	Expression    string             `koanf:"expression"`
	Floor         *float64           `koanf:"floor"`
}

// LoadDescriptor reads a YAML model descriptor. A missing file yields
// ErrModelUnavailable; unreadable content yields ErrInvalidModel.
func LoadDescriptor(path string) (Descriptor, error) {
	var d Descriptor
	if strings.TrimSpace(path) == "" {
		return d, fmt.Errorf("%w: no model path configured", ErrModelUnavailable)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return d, fmt.Errorf("%w: %s not found", ErrModelUnavailable, path)
		}
		return d, fmt.Errorf("%w: %s: %w", ErrInvalidModel, path, err)
	}
	if err := k.UnmarshalWithConf("", &d, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return d, fmt.Errorf("%w: %s: %w", ErrInvalidModel, path, err)
	}
	d.Kind = strings.ToLower(strings.TrimSpace(d.Kind))
	return d, nil
}

// Build turns a descriptor into a predictor.
func Build(d Descriptor) (estimator.Predictor, error) {
	switch d.Kind {
	case KindLinear:
		return NewLinearModel(d), nil
	case KindCEL:
		return NewCELModel(d.Expression)
	case "":
		return nil, fmt.Errorf("%w: kind is required", ErrInvalidModel)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidModel, d.Kind)
	}
}
