// Package num holds the numeric coercions and arithmetic helpers shared by the
// encoder and decoder.
package num
