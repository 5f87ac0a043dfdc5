// Package aggregate reduces an asset set to the dashboard's chart series:
// OS family distribution, health grade distribution, disk model histogram,
// and the headline summary numbers.
//
// All functions are pure and safe to call on a shared snapshot.
package aggregate
