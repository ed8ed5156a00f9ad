// Package linker binds the imports of a world to call targets.
//
// An ImportTable keeps one namespace tree per importing world. Plain names
// sit at the root; interface-qualified names ("test:floats/test@0.1.0#get")
// are placed under their interface path and resolve with semver matching,
// so a request for 0.1.0 is served by 0.1.3 but not by 0.2.0 or 1.0.0.
//
// # Thread Safety
//
// ImportTable and Namespace are safe for concurrent use. The targets they
// return follow the call package's rules.
//
// # Example
//
//	imports := linker.NewImportTable()
//	imports.Define("runner", "test:floats/test#get", getExport)
//	if err := imports.Check(g, runnerWorld); err != nil {
//		return err
//	}
//	out, err := imports.Call(ctx, adapter, runner, "runner", "test:floats/test#get", h)
package linker
