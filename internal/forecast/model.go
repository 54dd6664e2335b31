package forecast

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"retailcli/internal/config"
	apperrors "retailcli/internal/errors"
	"retailcli/pkg/domain"
)

// Model is the serialized fitted-model artifact. It is a derived artifact,
// not authoritative state: regenerating a run overwrites it unconditionally.
type Model struct {
	Format        string     `json:"format"`
	Mode          string     `json:"mode"`
	Seed          int64      `json:"seed"`
	Trees         int        `json:"trees"`
	WindowMonths  int        `json:"window_months,omitempty"`
	FeatureMonths []string   `json:"feature_months,omitempty"`
	TargetMonth   string     `json:"target_month,omitempty"`
	Evaluation    Evaluation `json:"evaluation"`
	TrainedAt     time.Time  `json:"trained_at"`

	Regression     *RegressionForest     `json:"regression,omitempty"`
	Classification *ClassificationForest `json:"classification,omitempty"`
}

const modelFormat = "retail_demand_model_v1"

const monthLayout = "2006-01"

func newModel(mode string, cfg config.PipelineConfig, dataset *domain.SupervisedDataset, evaluation Evaluation, regression *RegressionForest, classification *ClassificationForest) *Model {
	m := &Model{
		Format:         modelFormat,
		Mode:           mode,
		Seed:           cfg.Seed,
		Trees:          cfg.Trees,
		Evaluation:     evaluation,
		TrainedAt:      time.Now().UTC(),
		Regression:     regression,
		Classification: classification,
	}
	if dataset != nil {
		m.WindowMonths = cfg.WindowMonths
		m.TargetMonth = dataset.TargetMonth.Format(monthLayout)
		for _, month := range dataset.FeatureMonths {
			m.FeatureMonths = append(m.FeatureMonths, month.Format(monthLayout))
		}
	}
	return m
}

// Save writes the model artifact as indented JSON.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory for model artifact", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create model artifact", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return apperrors.NewStorageError("failed to encode model artifact", err)
	}
	return nil
}

// LoadModel reads a model artifact back from disk.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read model artifact", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.NewParsingError("failed to decode model artifact", err)
	}
	return &m, nil
}
