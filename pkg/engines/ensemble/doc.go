// Package ensemble implements the predictive scoring engine.
//
// The engine extracts a numeric feature vector from the claim and its
// enriched context and hands it to two opaque scorers behind interfaces: a
// supervised model predicting fraud probability and an unsupervised outlier
// scorer. The two are blended with fixed weights. Scorers that have not
// been trained report ErrNotTrained and are replaced by neutral values so
// the engine keeps producing a score; a scorer that fails outright marks
// the whole engine unavailable.
package ensemble
