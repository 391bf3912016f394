package keys

// Call counter key for an instrumented operation: "<op>".
func Count(op string) string { return op }

// Inputs is the history list of argument tuples: "<op>:inputs".
func Inputs(op string) string { return op + ":inputs" }

// Outputs is the history list of results: "<op>:outputs".
func Outputs(op string) string { return op + ":outputs" }

// Access counter key for a fetched resource: "count:<id>".
func Access(resource string) string { return "count:" + resource }

// Page is the cached fetch result key: "cache:<id>".
func Page(resource string) string { return "cache:" + resource }
