package substance

import (
	"context"
)

// ChemicalInfo is the subset of compound-database properties the registry
// uses: the stable compound identifier stored in records and the molar mass
// served on extended reads.
type ChemicalInfo struct {
	// CID is the compound's identifier in the external database.
	CID int64

	// MolarMass is the molecular weight in g/mol, 0 when the source did
	// not report one.
	MolarMass float64

	// Name is the compound's preferred name in the external database.
	Name string
}

// Resolver looks up a CAS registry number in an external compound database.
// The production implementation talks to the PubChem PUG REST API behind a
// persisted miss cache; tests substitute a stub.
//
// Resolve returns an error satisfying errors.IsNotFound when the database
// has no compound for the number. Transport and decoding failures return
// other error codes and abort the caller's run.
type Resolver interface {
	Resolve(ctx context.Context, registryNumber string) (*ChemicalInfo, error)
}
