package rules

import "github.com/infodancer/mzfilter"

func init() {
	mzfilter.Register("json", DecodeJSON, "json")
	mzfilter.Register("yaml", DecodeYAML, "yaml", "yml")
}
