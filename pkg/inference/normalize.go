package inference

import (
	"sort"

	"github.com/charmbracelet/log"
)

// Normalize flattens a response into FileData.
//
// Methods of every class are merged with module level functions, and class,
// module and function variables all end up in one collection; no ownership
// survives. Prediction order and duplicates are preserved as received.
func Normalize(resp *Response) *FileData {
	data := &FileData{}
	if resp == nil {
		return data
	}
	data.SessionID = resp.SessionID

	funcs := make([]Function, 0, len(resp.Funcs))
	funcs = append(funcs, resp.Funcs...)

	for _, cls := range resp.Classes {
		funcs = append(funcs, cls.Funcs...)
		data.Variables = append(data.Variables, variableRecords(cls.VariablesP, cls.ClsVarLn)...)
	}

	data.Variables = append(data.Variables, variableRecords(resp.VariablesP, resp.ModVarLn)...)

	data.Functions = make([]FunctionRecord, 0, len(funcs))
	for _, fn := range funcs {
		lines, ok := span(fn.FnLc)
		if !ok {
			log.Debugf("Skipping function %q: bad location %v", fn.Name, fn.FnLc)
			continue
		}

		returnTypes := Annotations(fn.RetTypeP)
		if len(returnTypes) == 0 {
			returnTypes = []string{NoReturnType}
		}

		params := make(map[string][]string, len(fn.ParamsP))
		for name, preds := range fn.ParamsP {
			params[name] = Annotations(preds)
		}

		data.Functions = append(data.Functions, FunctionRecord{
			Name:        fn.Name,
			Lines:       lines,
			ReturnTypes: returnTypes,
			Params:      params,
		})
		data.Variables = append(data.Variables, variableRecords(fn.VariablesP, fn.FnVarLn)...)
	}

	return data
}

// Annotations projects the type string out of each prediction, keeping order.
func Annotations(preds []Prediction) []string {
	out := make([]string, 0, len(preds))
	for _, p := range preds {
		out = append(out, p.Type)
	}
	return out
}

// variableRecords pairs a prediction map with its location map.
// Names present in only one of the two are dropped.
func variableRecords(preds PredictionMap, locs Locations) []VariableRecord {
	if len(preds) == 0 {
		return nil
	}

	names := make([]string, 0, len(preds))
	for name := range preds {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]VariableRecord, 0, len(names))
	for _, name := range names {
		loc, ok := locs[name]
		if !ok {
			log.Debugf("Skipping variable %q: no location", name)
			continue
		}
		lines, ok := span(loc)
		if !ok {
			log.Debugf("Skipping variable %q: bad location %v", name, loc)
			continue
		}
		records = append(records, VariableRecord{
			Name:        name,
			Lines:       lines,
			Annotations: Annotations(preds[name]),
		})
	}
	return records
}
