package filter

import (
	"math"
	"math/rand"
)

// logit is a small L2-regularized logistic regression head. Weight init and
// fitting are fully deterministic so identical inputs produce identical runs.
type logit struct {
	W       []float64
	B       float64
	L2      float64
	featDim int
}

func newLogit(featDim int, l2 float64) *logit {
	rng := rand.New(rand.NewSource(42))
	w := make([]float64, featDim)
	for i := range w {
		w[i] = rng.NormFloat64() * 0.01
	}
	return &logit{W: w, L2: l2, featDim: featDim}
}

// predict returns the probability of the positive class, or 0.5 when the
// feature vector does not match the trained dimension.
func (m *logit) predict(x []float64) float64 {
	if len(x) != m.featDim {
		return 0.5
	}
	z := m.B
	for i := 0; i < m.featDim; i++ {
		z += m.W[i] * x[i]
	}
	// numeric clamps
	if z > 20 {
		return 1.0
	}
	if z < -20 {
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// fit runs full-batch gradient descent on cross-entropy loss with L2 decay,
// keeping the best weights seen and stopping early once the loss plateaus.
func (m *logit) fit(feats [][]float64, labels []float64, lr float64, epochs int) {
	if len(feats) == 0 || len(labels) == 0 {
		return
	}
	bestW := append([]float64(nil), m.W...)
	bestB := m.B
	bestLoss := math.MaxFloat64
	patience := 5
	wait := 0

	n := float64(len(feats))
	for e := 0; e < epochs; e++ {
		gW := make([]float64, m.featDim)
		var gB float64
		for i := range feats {
			p := m.predict(feats[i])
			grad := p - labels[i]
			for j := 0; j < m.featDim; j++ {
				gW[j] += grad * feats[i][j]
			}
			gB += grad
		}
		for j := 0; j < m.featDim; j++ {
			gW[j] += m.L2 * m.W[j]
		}
		eta := lr / n
		for j := 0; j < m.featDim; j++ {
			m.W[j] -= eta * gW[j]
		}
		m.B -= eta * gB

		loss := m.loss(feats, labels)
		if loss < bestLoss-1e-6 {
			bestLoss = loss
			copy(bestW, m.W)
			bestB = m.B
			wait = 0
		} else {
			wait++
			if wait >= patience {
				break
			}
		}
	}
	m.W, m.B = bestW, bestB
}

func (m *logit) loss(feats [][]float64, labels []float64) float64 {
	loss := 0.0
	for i := range feats {
		p := m.predict(feats[i])
		if p < 1e-8 {
			p = 1e-8
		}
		if p > 1-1e-8 {
			p = 1 - 1e-8
		}
		y := labels[i]
		loss += -(y*math.Log(p) + (1-y)*math.Log(1-p))
	}
	reg := 0.0
	for j := 0; j < m.featDim; j++ {
		reg += 0.5 * m.L2 * m.W[j] * m.W[j]
	}
	return loss + reg
}
