package mstools

import "context"

// ScriptGenerator materializes the DDL/DML script for one stage.
//
// Generate writes a single UTF-8 text file at the stage's ScriptPath and
// returns the path actually written. The pipeline reads this file in full
// before splitting; streaming is not part of the contract. A Generate
// failure is a setup-level error that aborts the remaining pipeline.
type ScriptGenerator interface {
	Generate(ctx context.Context, stage Stage) (string, error)
}
