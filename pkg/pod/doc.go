// Package pod builds and validates pod creation requests.
//
// It turns CLI input into a runpod.CreatePodInput: environment variables from
// --env flags, env files and AWS credential pass-through, image reference
// normalization, and sanity checks on sizes, ports and cloud type. It also
// redacts secret-looking environment values before pods are printed.
package pod
