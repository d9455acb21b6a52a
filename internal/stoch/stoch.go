// Package stoch estimates the Ornstein-Uhlenbeck parameters of the mid-price
// process and derives Avellaneda-Stoikov reservation price and half-spread
// quotes from them.
//
// FitOU recovers kappa (mean-reversion speed), theta (long-run mean), and
// sigma (volatility) from a fixed-dt sample path via a closed-form OLS fit
// of the discretized AR(1) model; Quote turns those parameters, plus the
// current mid and inventory, into a bid/ask pair.
package stoch

import (
	"fmt"
	"math"

	"mm-backtest/pkg/types"
)

// FitOU fits an OU process to x, sampled at fixed interval dt seconds.
//
// Discrete model: x[t+1] = a*x[t] + b + eps, with
//
//	a = exp(-kappa*dt), b = theta*(1-a), Var(eps) = sigma^2*(1-exp(-2*kappa*dt))/(2*kappa)
//
// a and b are recovered by ordinary least squares on the (x[t], x[t+1])
// pairs; kappa, theta, sigma are then recovered in closed form from a, b,
// and the residual variance. Requires len(x) >= 3.
func FitOU(x []float64, dt float64) (types.OuParams, error) {
	if len(x) < 3 {
		return types.OuParams{}, fmt.Errorf("stoch: FitOU needs at least 3 samples, got %d", len(x))
	}
	n := float64(len(x) - 1)

	var sx, sy, sxx, sxy float64
	for t := 0; t < len(x)-1; t++ {
		xt, yt := x[t], x[t+1]
		sx += xt
		sy += yt
		sxx += xt * xt
		sxy += xt * yt
	}
	denom := n*sxx - sx*sx
	a := (n*sxy - sx*sy) / denom
	b := (sy - a*sx) / n

	var sse float64
	for t := 0; t < len(x)-1; t++ {
		r := x[t+1] - (a*x[t] + b)
		sse += r * r
	}
	varEps := sse / (n - 2)

	kappa := -math.Log(a) / dt
	theta := b / (1.0 - a)
	sigma := math.Sqrt(varEps * (2.0 * kappa) / (1.0 - math.Exp(-2.0*kappa*dt)))

	if !isFinite(kappa) || !isFinite(theta) || !isFinite(sigma) {
		return types.OuParams{}, fmt.Errorf("stoch: FitOU produced non-finite parameters (kappa=%v theta=%v sigma=%v), likely a degenerate (constant or collinear) input series", kappa, theta, sigma)
	}

	return types.OuParams{Kappa: kappa, Theta: theta, Sigma: sigma}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Quote computes the Avellaneda-Stoikov reservation price and half-spread
// around mid s for inventory q, given the fitted OU volatility and the
// risk/arrival-intensity parameters in avs:
//
//	rp    = s - q * gamma * sigma^2 * (T-t)
//	delta = (1/k) * ln(1 + gamma/k) + (gamma * sigma^2 * (T-t)) / 2
//	bid   = rp - delta, ask = rp + delta
func Quote(s float64, q int32, ou types.OuParams, avs types.AvsParams) types.QuotePx {
	sig2H := ou.Sigma * ou.Sigma * avs.HorizonS
	rp := s - float64(q)*avs.Gamma*sig2H
	half := (1.0/avs.K)*math.Log(1.0+avs.Gamma/avs.K) + 0.5*avs.Gamma*sig2H

	return types.QuotePx{
		BidPx: int32(rp - half),
		AskPx: int32(rp + half),
	}
}
