package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cloudclassify/blob"
	qhttp "cloudclassify/http"
	"cloudclassify/ml"
)

var functions = map[string]string{
	"wine": qhttp.WineFunction,
	"iris": qhttp.IrisFunction,
}

// newPredictCmd 创建predict子命令
// 输入经过与服务端相同的处理器，校验和绑定行为一致
func newPredictCmd() *cobra.Command {
	var modelPath, inputPath string

	cmd := &cobra.Command{
		Use:       "predict <wine|iris>",
		Short:     "Predict the class of one JSON feature record",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"wine", "iris"},
		RunE: func(cmd *cobra.Command, args []string) error {
			function := functions[args[0]]

			body, err := readInput(cmd, inputPath)
			if err != nil {
				return err
			}
			store, err := blob.NewFilesystemStore(filepath.Dir(modelPath))
			if err != nil {
				return err
			}
			predictor := ml.NewPredictor(ml.NewLoader(store, ml.WithLogger(zlog)), filepath.Base(modelPath))
			handlers := qhttp.NewHandlers(predictor, predictor, qhttp.WithLogger(zlog))
			handler, _ := handlers.Function(function)

			req := httptest.NewRequest(http.MethodPost, "/"+function, bytes.NewReader(body))
			req = req.WithContext(cmd.Context())
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				return fmt.Errorf("%s returned %d %s", function, w.Code, strings.TrimSpace(w.Body.String()))
			}
			fmt.Fprint(cmd.OutOrStdout(), w.Body.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "path to the model artifact")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "JSON input file, or - for stdin")
	cmd.MarkFlagRequired("model")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
