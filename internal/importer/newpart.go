package importer

import (
	"context"
	"fmt"
	"path"
	"strings"

	"partcat/internal/catalog"
	"partcat/internal/faults"
	"partcat/internal/history"
	"partcat/internal/kicad"
	"partcat/internal/logging"
	"partcat/internal/textutil"
)

const (
	blankReference          = "U"
	blankFootprintGenerator = "pcbnew"
)

// NewPart adds an empty symbol and footprint for a part that has no vendor
// archive, so it can be drawn by hand in the KiCad editors.
func (imp *Importer) NewPart(ctx context.Context, partNumber, category string) (Result, error) {
	partNumber = strings.TrimSpace(partNumber)
	if partNumber == "" {
		return Result{}, faults.Wrap(faults.ErrSchema, "", "new part", "part number is empty", nil)
	}
	return imp.run(ctx, history.ActionNewPart, func(ctx context.Context, ov *overlay, result *Result) error {
		part, err := imp.planBlank(ctx, ov, partNumber, category)
		if err != nil {
			return err
		}
		result.Parts = append(result.Parts, part)
		return nil
	}, func(result Result) []*history.Event {
		events := make([]*history.Event, 0, len(result.Parts))
		for _, part := range result.Parts {
			events = append(events, &history.Event{
				RunID:      result.RunID,
				Action:     history.ActionNewPart,
				PartNumber: part.PartNumber,
				Category:   part.Category,
				Library:    part.Library,
				Files:      2,
			})
		}
		return events
	})
}

func (imp *Importer) planBlank(ctx context.Context, ov *overlay, partNumber, rawCategory string) (PartResult, error) {
	scope := partNumber
	logger := logging.WithContext(logging.WithPart(ctx, partNumber), imp.logger)

	category := catalog.SanitizeCategory(rawCategory)
	if category == "" {
		return PartResult{}, faults.Wrap(faults.ErrSchema, scope, "normalize category",
			fmt.Sprintf("category %q is empty after sanitizing", rawCategory), nil)
	}
	fileName := textutil.SanitizeFileName(partNumber)

	c, err := imp.resolve(category, fileName)
	if err != nil {
		return PartResult{}, faults.Wrap(faults.ErrConfiguration, scope, "resolve containers", "", err)
	}
	ov.ensureDir(c.footprints.Path)
	ov.ensureDir(c.models.Path)
	symbols, err := ov.symbolLibrary(c.symbols.Path, imp.freshSymbolLib)
	if err != nil {
		return PartResult{}, faults.Wrap(faults.ErrStructure, scope, "load symbol library", "", err)
	}
	if symbols.Find(partNumber) != nil {
		return PartResult{}, faults.Wrap(faults.ErrDuplicate, scope, "add symbol",
			fmt.Sprintf("symbol already exists in %s", c.symbols.Path), nil)
	}

	footprintFile := path.Join(c.footprints.Path, fileName+catalog.FootprintExt)
	exists, err := ov.exists(footprintFile)
	if err != nil {
		return PartResult{}, faults.Wrap(faults.ErrStructure, scope, "check footprint", "", err)
	}
	if exists {
		return PartResult{}, faults.Wrap(faults.ErrDuplicate, scope, "check footprint",
			fmt.Sprintf("footprint %s already exists", footprintFile), nil)
	}

	nick := imp.layout.Nickname(category)
	symbols.Append(kicad.NewSymbol(partNumber, blankReference, partNumber, nick+":"+fileName))
	ov.markSymbols(c.symbols.Path)

	fp := kicad.NewFootprint(partNumber, imp.cfg.Catalog.FootprintVersion, blankFootprintGenerator)
	ov.putFile(footprintFile, fp.Bytes())

	fpTable, symTable, err := ov.tables()
	if err != nil {
		return PartResult{}, faults.Wrap(faults.ErrStructure, scope, "load library tables", "", err)
	}
	fpTable.Ensure(c.footprints.Path, nick, false)
	symTable.Ensure(c.symbols.Path, nick, false)

	logger.Info("blank part planned",
		logging.Category(category),
		logging.String("footprint", footprintFile),
		logging.String(logging.FieldEventType, "part_planned"),
	)
	return PartResult{
		PartNumber: partNumber,
		Category:   category,
		Library:    nick,
		Footprint:  footprintFile,
	}, nil
}
