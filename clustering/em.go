package clustering

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/mikiec84/vafile/dataset"
	"github.com/mikiec84/vafile/distance"
)

const (
	// singularityCheat is added to the covariance diagonal before inversion
	// to avoid singular matrices.
	singularityCheat = 1e-9

	// minLogLikelihood floors the per-object log density contribution.
	minLogLikelihood = -100000
)

// Model is the Gaussian model of a single cluster.
type Model struct {
	Mean       []float64
	Covariance *mat.Dense
}

// Cluster is a hard cluster assignment with its Gaussian model.
type Cluster struct {
	IDs   []uint32
	Model Model
}

// Result holds the outcome of an EM run. Responsibilities retains the soft
// per-object cluster probabilities for downstream consumers such as outlier
// scoring.
type Result struct {
	Clusters         []Cluster
	LogLikelihood    float64
	Iterations       int
	Responsibilities [][]float64
}

// EMOptions configures an EM run.
type EMOptions struct {
	// Delta is the termination criterion: stop when the log-likelihood
	// improvement drops to Delta or below.
	Delta float64

	// MaxIter caps the number of iterations. Negative means no cap.
	MaxIter int

	// Initializer chooses the initial means.
	Initializer Initializer
}

// DefaultEMOptions are the default EM options.
var DefaultEMOptions = EMOptions{
	Delta:   1e-7,
	MaxIter: 100,
}

// EM clusters a dataset into k Gaussian mixture components by expectation
// maximization. Initial models use the initializer's means with identity
// covariance and uniform weights; iteration alternates responsibility
// assignment (E) and model re-estimation (M) until the log-likelihood gain
// drops below delta.
type EM struct {
	k    int
	opts EMOptions
}

// NewEM creates an EM clusterer for k > 0 clusters.
func NewEM(k int, optFns ...func(o *EMOptions)) (*EM, error) {
	if k < 1 {
		return nil, fmt.Errorf("clustering: k must be positive, got %d", k)
	}
	opts := DefaultEMOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Initializer == nil {
		opts.Initializer = NewFarthestSumPoints(0, true)
	}
	return &EM{k: k, opts: opts}, nil
}

// Run executes EM on the dataset and returns a hard clustering with the
// fitted models.
func (em *EM) Run(ctx context.Context, data dataset.Dataset) (*Result, error) {
	if data == nil || data.Size() == 0 {
		return nil, fmt.Errorf("clustering: dataset is empty")
	}
	if data.Size() < em.k {
		return nil, fmt.Errorf("clustering: %d objects for k=%d clusters", data.Size(), em.k)
	}

	means, err := em.opts.Initializer.ChooseInitialMeans(data, em.k, distance.Euclidean())
	if err != nil {
		return nil, err
	}

	k := em.k
	dim := data.Dimensionality()
	size := data.Size()

	covs := make([]*mat.Dense, k)
	invCovs := make([]*mat.Dense, k)
	normFactor := make([]float64, k)
	weights := make([]float64, k)
	for i := 0; i < k; i++ {
		covs[i] = identity(dim)
		invCovs[i] = identity(dim)
		normFactor[i] = 1 / math.Sqrt(math.Pow(2*math.Pi, float64(dim)))
		weights[i] = 1 / float64(k)
	}

	resp := make([][]float64, size)
	for i := range resp {
		resp[i] = make([]float64, k)
	}

	likelihood, err := em.expectation(ctx, data, means, invCovs, normFactor, weights, resp)
	if err != nil {
		return nil, err
	}

	iterations := 0
	for it := 1; it <= em.opts.MaxIter || em.opts.MaxIter < 0; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prev := likelihood

		em.maximization(data, means, covs, weights, resp)
		for i := 0; i < k; i++ {
			det := mat.Det(covs[i])
			normFactor[i] = 1 / math.Sqrt(math.Pow(2*math.Pi, float64(dim))*det)
			var inv mat.Dense
			if err := inv.Inverse(covs[i]); err != nil {
				return nil, fmt.Errorf("clustering: singular covariance in cluster %d: %w", i, err)
			}
			invCovs[i] = &inv
		}

		likelihood, err = em.expectation(ctx, data, means, invCovs, normFactor, weights, resp)
		if err != nil {
			return nil, err
		}
		iterations = it
		if math.Abs(prev-likelihood) <= em.opts.Delta {
			break
		}
	}

	return em.harden(data, means, covs, resp, likelihood, iterations), nil
}

// expectation assigns soft cluster responsibilities to every object and
// returns the log-likelihood of the current mixture. Objects are processed
// in parallel chunks.
func (em *EM) expectation(ctx context.Context, data dataset.Dataset, means [][]float64, invCovs []*mat.Dense, normFactor, weights []float64, resp [][]float64) (float64, error) {
	size := data.Size()
	workers := runtime.GOMAXPROCS(0)
	if workers > size {
		workers = size
	}
	chunk := (size + workers - 1) / workers

	var mu sync.Mutex
	var sum float64

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, size)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			local := 0.0
			diff := make([]float64, len(means[0]))
			probs := make([]float64, em.k)
			for id := lo; id < hi; id++ {
				v, _ := data.Vector(uint32(id))
				prior := 0.0
				for i := range probs {
					for d := range diff {
						diff[d] = float64(v[d]) - means[i][d]
					}
					dv := mat.NewVecDense(len(diff), diff)
					mahalanobis := mat.Inner(dv, invCovs[i], dv)
					probs[i] = normFactor[i] * math.Exp(-mahalanobis/2)
					prior += probs[i] * weights[i]
				}
				logP := math.Max(math.Log(prior), minLogLikelihood)
				if !math.IsNaN(logP) {
					local += logP
				}
				for i := range probs {
					if prior == 0 {
						resp[id][i] = 0
					} else {
						resp[id][i] = probs[i] / prior * weights[i]
					}
				}
			}
			mu.Lock()
			sum += local
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return sum, nil
}

// maximization re-estimates weights, means and covariances from the current
// responsibilities. The covariance diagonal gets a small additive term to
// keep the matrices invertible.
func (em *EM) maximization(data dataset.Dataset, means [][]float64, covs []*mat.Dense, weights []float64, resp [][]float64) {
	k := em.k
	dim := data.Dimensionality()
	size := data.Size()

	respSums := make([]float64, k)
	meanSums := make([][]float64, k)
	for i := 0; i < k; i++ {
		meanSums[i] = make([]float64, dim)
	}

	for id, v := range data.All() {
		for i := 0; i < k; i++ {
			r := resp[id][i]
			respSums[i] += r
			for d := 0; d < dim; d++ {
				meanSums[i][d] += r * float64(v[d])
			}
		}
	}
	for i := 0; i < k; i++ {
		weights[i] = respSums[i] / float64(size)
		if respSums[i] == 0 {
			continue
		}
		for d := 0; d < dim; d++ {
			means[i][d] = meanSums[i][d] / respSums[i]
		}
	}

	diff := make([]float64, dim)
	for i := 0; i < k; i++ {
		cov := mat.NewDense(dim, dim, nil)
		for id, v := range data.All() {
			r := resp[id][i]
			if r == 0 {
				continue
			}
			for d := 0; d < dim; d++ {
				diff[d] = float64(v[d]) - means[i][d]
			}
			for a := 0; a < dim; a++ {
				for b := 0; b < dim; b++ {
					cov.Set(a, b, cov.At(a, b)+r*diff[a]*diff[b])
				}
			}
		}
		if respSums[i] > 0 {
			cov.Scale(1/respSums[i], cov)
		}
		for d := 0; d < dim; d++ {
			cov.Set(d, d, cov.At(d, d)+singularityCheat)
		}
		covs[i] = cov
	}
}

// harden converts the soft responsibilities to a hard clustering: each object
// joins the cluster with its highest responsibility.
func (em *EM) harden(data dataset.Dataset, means [][]float64, covs []*mat.Dense, resp [][]float64, likelihood float64, iterations int) *Result {
	clusters := make([]Cluster, em.k)
	for i := range clusters {
		clusters[i].Model = Model{Mean: means[i], Covariance: covs[i]}
	}

	for id := 0; id < data.Size(); id++ {
		best, bestProb := 0, 0.0
		for i, p := range resp[id] {
			if p > bestProb {
				best, bestProb = i, p
			}
		}
		clusters[best].IDs = append(clusters[best].IDs, uint32(id))
	}

	return &Result{
		Clusters:         clusters,
		LogLikelihood:    likelihood,
		Iterations:       iterations,
		Responsibilities: resp,
	}
}

func identity(dim int) *mat.Dense {
	m := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		m.Set(i, i, 1)
	}
	return m
}
