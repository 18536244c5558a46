// Package jsonval provides a tagged representation of loosely-typed JSON
// values (object, array, string, number, bool, null).
//
// HTTP bodies passing through the interception engine are JSON of unknown
// shape, or not JSON at all. Representing them as a tagged Value lets the
// merge and templating logic pattern-match on the Kind instead of
// type-switching over interface{} trees:
//
//	v := jsonval.FromText(body)
//	switch v.Kind {
//	case jsonval.KindObject:
//	    // v.Object
//	case jsonval.KindArray:
//	    // v.Array
//	}
//
// A Value round-trips through encoding/json: objects, arrays, strings,
// numbers, booleans and null all marshal back to their original JSON
// form. Numbers are kept as json.Number so that integer identifiers are
// not reformatted through float64.
package jsonval
