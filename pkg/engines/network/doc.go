// Package network implements the network risk scoring engine.
//
// Risk is read off a provider billing graph maintained elsewhere: a
// provider sitting at an unusually central position, or a graph shattered
// into many small components, both correlate with organized billing abuse.
// The graph lives behind the GraphClient interface; when it cannot be
// reached the engine reports unavailable rather than a deceptive zero.
package network
