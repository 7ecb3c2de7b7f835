// Package batch drives the clearing strategies over a complete MatchingData
// input. Markets and time slots are visited in input order; every slot is
// cleared independently, optionally on several workers, and the resulting
// recommendations are concatenated in input order whatever the degree of
// parallelism.
//
// Malformed orders are excluded from their slot and reported in
// Result.Rejected. A slot whose strategy output breaks the recommendation
// contract contributes nothing, is reported in Result.Failures and makes Run
// return an error; the other slots are still cleared.
package batch
