package fedavg_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pro7ech/fedavg/fedavg"
)

func TestReadWeightsCSV(t *testing.T) {

	testCases := []struct {
		name  string
		input string
		want  fedavg.WeightVector
		names []string
	}{
		{
			name:  "FeatureCoefficient",
			input: "Feature,Coefficient\nage,1\nbmi,2\nIntercept,0.5\n",
			want:  fedavg.WeightVector{1, 2, 0.5},
			names: []string{"age", "bmi", "Intercept"},
		},
		{
			name:  "InterceptFirst",
			input: "Feature,Coefficient\nintercept,0.5\nage,1\nbmi,2\n",
			want:  fedavg.WeightVector{1, 2, 0.5},
			names: []string{"age", "bmi", "Intercept"},
		},
		{
			name:  "NoInterceptRow",
			input: "feature, coef\nage,1\nbmi,2\nbias,0.5\n",
			want:  fedavg.WeightVector{1, 2, 0.5},
			names: []string{"age", "bmi", "Intercept"},
		},
		{
			name:  "ExtraColumns",
			input: "Feature,StdErr,Coefficient\nage,0.1,1\nIntercept,0.2,0.5\n",
			want:  fedavg.WeightVector{1, 0.5},
			names: []string{"age", "Intercept"},
		},
		{
			name:  "CoefficientOnly",
			input: "coef\n1\n2\n0.5\n",
			want:  fedavg.WeightVector{1, 2, 0.5},
			names: []string{"f0", "f1", "Intercept"},
		},
		{
			name:  "IndexValue",
			input: "Index,Value\n0,3\n1,-1\n2,1.5\n",
			want:  fedavg.WeightVector{3, -1, 1.5},
			names: []string{"f0", "f1", "Intercept"},
		},
		{
			name:  "HeaderlessRow",
			input: "1, 2, 3, 4, 0.5\n",
			want:  fedavg.WeightVector{1, 2, 3, 4, 0.5},
			names: []string{"f0", "f1", "f2", "f3", "Intercept"},
		},
		{
			name:  "Headerless",
			input: "1\n2e-1\n-0.5\n",
			want:  fedavg.WeightVector{1, 0.2, -0.5},
			names: []string{"f0", "f1", "Intercept"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, schema, err := fedavg.ReadWeightsCSV(strings.NewReader(tc.input))
			require.NoError(t, err)
			require.Equal(t, tc.want, w)
			require.Equal(t, tc.names, schema.Names)
		})
	}

	t.Run("Errors", func(t *testing.T) {
		for name, input := range map[string]string{
			"Empty":         "",
			"HeaderOnly":    "Feature,Coefficient\n",
			"NoCoefficient": "Feature,Weight\nage,1\n",
			"InvalidValue":  "Feature,Coefficient\nage,one\nIntercept,1\n",
			"MissingValue":  "Feature,Other,Coefficient\nage,1\n",
			"InvalidRow":    "1,x,0.5\n",
		} {
			t.Run(name, func(t *testing.T) {
				_, _, err := fedavg.ReadWeightsCSV(strings.NewReader(input))
				require.Error(t, err)
			})
		}
	})
}

func TestWriteWeightsCSV(t *testing.T) {

	t.Run("IndexValue", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, fedavg.WriteWeightsCSV(&buf, []float64{2, 0.5, 1}))
		require.Equal(t, "Index,Value\n0,2\n1,0.5\n2,1\n", buf.String())
	})

	t.Run("FeatureCoefficient", func(t *testing.T) {

		named := []fedavg.NamedWeight{{"age", 2}, {"bmi", 0.5}, {"Intercept", 1}}

		var buf bytes.Buffer
		require.NoError(t, fedavg.WriteNamedWeightsCSV(&buf, named))
		require.Equal(t, "Feature,Coefficient\nage,2\nbmi,0.5\nIntercept,1\n", buf.String())

		w, schema, err := fedavg.ReadWeightsCSV(&buf)
		require.NoError(t, err)

		have, err := schema.AttachNames(w)
		require.NoError(t, err)
		require.Equal(t, named, have)
	})
}

func TestCSVFile(t *testing.T) {

	dir := t.TempDir()
	path := filepath.Join(dir, "alice.csv")
	require.NoError(t, os.WriteFile(path, []byte("Feature,Coefficient\nage,1\nIntercept,0.5\n"), 0o644))

	f := fedavg.CSVFile{Path: path, Count: 42}
	require.Equal(t, "alice", f.PartyName())

	c, err := f.Load()
	require.NoError(t, err)
	require.Equal(t, "alice", c.Name)
	require.Equal(t, 42.0, c.Count)
	require.Equal(t, fedavg.WeightVector{1, 0.5}, c.Weights)
	require.Equal(t, []string{"age", "Intercept"}, c.Schema.Names)

	f.Name = "bob"
	require.Equal(t, "bob", f.PartyName())

	_, err = fedavg.CSVFile{Path: path, Count: -1}.Load()
	require.ErrorIs(t, err, fedavg.ErrInvalidCount)

	_, err = fedavg.CSVFile{Path: filepath.Join(dir, "missing.csv")}.Load()
	require.ErrorIs(t, err, os.ErrNotExist)
}
