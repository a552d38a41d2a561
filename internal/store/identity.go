package store

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identifier reconciliation. Historical records were written with the
// same logical identifier under two representations: a generated
// ObjectID, or the raw string the client supplied. Every lookup by
// identifier therefore has to try the generated form first and fall
// back to the string form. These helpers are the single place that
// knows this; call sites never rebuild the candidate list themselves.

// idCandidates returns the stored values that can match the logical
// identifier s, generated-ObjectID form first.
func idCandidates(s string) []any {
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return []any{oid, s}
	}
	return []any{s}
}

// idFilters returns _id match predicates for s in fallback order.
func idFilters(s string) []bson.M {
	cands := idCandidates(s)
	out := make([]bson.M, 0, len(cands))
	for _, c := range cands {
		out = append(out, bson.M{"_id": c})
	}
	return out
}

// ownerFilter matches an owning-user reference stored under either
// representation.
func ownerFilter(s string) bson.M {
	return bson.M{"user_id": bson.M{"$in": idCandidates(s)}}
}

// ownerRef is the write-side convention: references are stored as
// given, in ObjectID form when the string is valid hex.
func ownerRef(s string) any {
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return oid
	}
	return s
}

// idString renders a stored identifier back to its string form.
func idString(v any) string {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
