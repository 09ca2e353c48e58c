package petstore

// TagsField is the array field whose element names get their own indexes.
const TagsField = "tags"

// PrimaryKey is the slot holding the serialized document.
func PrimaryKey(collection, id string) string {
	return collection + ":" + id
}

// FieldIndexKey names the set of ids holding a value. The same
// collection:field:value shape covers scalar fields and tag names, so the
// insert and delete paths build identical keys.
func FieldIndexKey(collection, field, value string) string {
	return collection + ":" + field + ":" + value
}

// MembershipKey names the set of all ids in a collection. The set is keyed
// by the collection name itself, so SMEMBERS <collection> lists every id.
func MembershipKey(collection string) string {
	return collection
}
