package cms

// Mutation is one entry of a mutate request. Exactly one field is set.
type Mutation struct {
	Create            Document  `json:"create,omitempty"`
	CreateOrReplace   Document  `json:"createOrReplace,omitempty"`
	CreateIfNotExists Document  `json:"createIfNotExists,omitempty"`
	Patch             *PatchOp  `json:"patch,omitempty"`
	Delete            *DeleteOp `json:"delete,omitempty"`
}

// PatchOp sets and unsets fields on an existing document.
type PatchOp struct {
	ID           string         `json:"id"`
	Set          map[string]any `json:"set,omitempty"`
	Unset        []string       `json:"unset,omitempty"`
	IfRevisionID string         `json:"ifRevisionID,omitempty"`
}

type DeleteOp struct {
	ID string `json:"id"`
}

// MutationResult is the response of a committed transaction.
type MutationResult struct {
	TransactionID string `json:"transactionId"`
	Results       []struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	} `json:"results"`
}

func Create(doc Document) Mutation {
	return Mutation{Create: doc}
}

func CreateOrReplace(doc Document) Mutation {
	return Mutation{CreateOrReplace: doc}
}

func CreateIfNotExists(doc Document) Mutation {
	return Mutation{CreateIfNotExists: doc}
}

func Set(id string, fields map[string]any) Mutation {
	return Mutation{Patch: &PatchOp{ID: id, Set: fields}}
}

func Delete(id string) Mutation {
	return Mutation{Delete: &DeleteOp{ID: id}}
}

// Kind names the operation, for logs and metrics.
func (m Mutation) Kind() string {
	switch {
	case m.Create != nil:
		return "create"
	case m.CreateOrReplace != nil:
		return "createOrReplace"
	case m.CreateIfNotExists != nil:
		return "createIfNotExists"
	case m.Patch != nil:
		return "patch"
	case m.Delete != nil:
		return "delete"
	}
	return "unknown"
}

// DocumentID returns the id the mutation targets.
func (m Mutation) DocumentID() string {
	switch {
	case m.Create != nil:
		return m.Create.ID()
	case m.CreateOrReplace != nil:
		return m.CreateOrReplace.ID()
	case m.CreateIfNotExists != nil:
		return m.CreateIfNotExists.ID()
	case m.Patch != nil:
		return m.Patch.ID
	case m.Delete != nil:
		return m.Delete.ID
	}
	return ""
}
