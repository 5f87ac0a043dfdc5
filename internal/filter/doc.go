// Package filter selects the visible subset of an asset snapshot.
//
// State holds, per category, the set of accepted values. An empty set puts
// no constraint on that category. Apply keeps an asset when the search term
// matches its user, computer name or asset tag AND every category accepts
// its value. Options lists the selectable values per category.
package filter
