package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cloudclassify/ml"
)

type artifactInfo struct {
	Format       string    `json:"format"`
	NumFeatures  int       `json:"n_features"`
	FeatureNames []string  `json:"feature_names,omitempty"`
	Classes      []float64 `json:"classes,omitempty"`
	Bytes        int       `json:"bytes"`
}

func newInspectCmd() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe a model artifact without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(modelPath)
			if err != nil {
				return err
			}
			info := artifactInfo{Bytes: len(data)}

			if strings.EqualFold(filepath.Ext(modelPath), ".onnx") {
				info.Format = "onnx"
			} else {
				var artifact ml.Artifact
				if err := json.Unmarshal(data, &artifact); err != nil {
					return fmt.Errorf("decode artifact: %w", err)
				}
				model, err := artifact.Build()
				if err != nil {
					return err
				}
				info.Format = artifact.Format
				info.FeatureNames = artifact.FeatureNames
				if d, ok := model.(ml.Describer); ok {
					info.NumFeatures = d.NumFeatures()
					info.Classes = d.Classes()
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "path to the model artifact")
	cmd.MarkFlagRequired("model")
	return cmd
}
