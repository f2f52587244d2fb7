package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/asaidimu/go-tabula/core/query"
	"github.com/asaidimu/go-tabula/core/table"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

var (
	// ErrTooFewFeatures is returned when a table has fewer than two
	// non-binary numeric columns to cluster on.
	ErrTooFewFeatures = errors.New("not enough non-binary numeric features for clustering")
	// ErrInvalidClusterCount is returned for a cluster count below one.
	ErrInvalidClusterCount = errors.New("invalid cluster count")
	// ErrNoRecords is returned when clustering an empty table.
	ErrNoRecords = errors.New("no records to cluster")
)

const (
	// DefaultClusters is the cluster count used when none is requested.
	DefaultClusters = 3
	// minClusterFeatures is the fewest columns clustering runs on.
	minClusterFeatures = 2
	defaultRuns        = 10
)

// Cluster is one k-means partition of the records.
type Cluster struct {
	ID    int `json:"cluster_id"`
	Count int `json:"company_count"`
	// Indices are positions in the clustered table, ascending.
	Indices []int `json:"companies"`
	// Center is the cluster mean in the original units, one value per
	// feature.
	Center []float64 `json:"center"`
}

// ClusterReport is the result of ClusterRecords.
type ClusterReport struct {
	Features     []string  `json:"features_used"`
	TotalRecords int       `json:"total_companies"`
	Clusters     []Cluster `json:"cluster_summary"`
}

// ClusterOption configures ClusterRecords.
type ClusterOption func(*clusterOptions)

type clusterOptions struct {
	runs int
}

// WithRuns sets how many k-means runs are made from fresh random centers.
// The run with the lowest within-cluster sum of squares is kept.
func WithRuns(n int) ClusterOption {
	return func(o *clusterOptions) {
		if n > 0 {
			o.runs = n
		}
	}
}

// observation is a standardized record that remembers its table position.
type observation struct {
	index  int
	coords clusters.Coordinates
}

func (o observation) Coordinates() clusters.Coordinates { return o.coords }

func (o observation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// ClusterRecords partitions the records of t into at most k clusters over its
// non-binary numeric columns. Missing values are replaced by the column mean
// and every column is scaled to zero mean and unit variance before k-means.
// Clusters are numbered by their lowest record index.
func ClusterRecords(t *table.Table, k int, opts ...ClusterOption) (*ClusterReport, error) {
	o := clusterOptions{runs: defaultRuns}
	for _, opt := range opts {
		opt(&o)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidClusterCount, k)
	}
	if t.Len() == 0 {
		return nil, ErrNoRecords
	}
	features := NonBinaryNumericFeatures(t)
	if len(features) < minClusterFeatures {
		return nil, fmt.Errorf("%w: found %d", ErrTooFewFeatures, len(features))
	}
	k = min(k, t.Len())

	means, scales := columnScales(t, features)
	dataset := make(clusters.Observations, t.Len())
	for i, rec := range t.Records {
		coords := make(clusters.Coordinates, len(features))
		for j, field := range features {
			v, ok := query.ToFloat64(rec[field])
			if !ok {
				v = means[j]
			}
			coords[j] = (v - means[j]) / scales[j]
		}
		dataset[i] = observation{index: i, coords: coords}
	}

	best, err := bestPartition(dataset, k, o.runs)
	if err != nil {
		return nil, err
	}

	report := &ClusterReport{
		Features:     features,
		TotalRecords: t.Len(),
		Clusters:     make([]Cluster, 0, len(best)),
	}
	for _, c := range best {
		if len(c.Observations) == 0 {
			continue
		}
		indices := make([]int, 0, len(c.Observations))
		for _, obs := range c.Observations {
			indices = append(indices, obs.(observation).index)
		}
		slices.Sort(indices)
		center := make([]float64, len(features))
		for j := range features {
			center[j] = c.Center[j]*scales[j] + means[j]
		}
		report.Clusters = append(report.Clusters, Cluster{
			Count:   len(indices),
			Indices: indices,
			Center:  center,
		})
	}
	slices.SortFunc(report.Clusters, func(a, b Cluster) int {
		return a.Indices[0] - b.Indices[0]
	})
	for i := range report.Clusters {
		report.Clusters[i].ID = i
	}
	return report, nil
}

// columnScales returns the mean and population standard deviation of each
// feature. Constant columns get a scale of one.
func columnScales(t *table.Table, features []string) (means, scales []float64) {
	means = make([]float64, len(features))
	scales = make([]float64, len(features))
	for j, field := range features {
		values, _ := numericValues(t, field)
		var sum float64
		for _, v := range values {
			sum += v
		}
		mean := sum / float64(len(values))

		// Imputed cells sit at the mean and add nothing to the variance.
		var sq float64
		for _, v := range values {
			sq += (v - mean) * (v - mean)
		}
		std := math.Sqrt(sq / float64(t.Len()))
		if std == 0 {
			std = 1
		}
		means[j], scales[j] = mean, std
	}
	return means, scales
}

func bestPartition(dataset clusters.Observations, k, runs int) (clusters.Clusters, error) {
	km := kmeans.New()
	var best clusters.Clusters
	bestInertia := math.Inf(1)
	for range runs {
		cc, err := km.Partition(dataset, k)
		if err != nil {
			return nil, fmt.Errorf("k-means failed: %w", err)
		}
		if inertia := withinSumOfSquares(cc); inertia < bestInertia {
			best, bestInertia = cc, inertia
		}
	}
	return best, nil
}

func withinSumOfSquares(cc clusters.Clusters) float64 {
	var total float64
	for _, c := range cc {
		for _, obs := range c.Observations {
			total += obs.Distance(c.Center)
		}
	}
	return total
}
