package submit

import (
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// jobRecord is one entry of the "Full List of Jobs" in a submission log.
type jobRecord struct {
	Cluster    int               `yaml:"cluster"`
	Process    int               `yaml:"process"`
	Items      map[string]string `yaml:"items"`
	Executable string            `yaml:"executable"`
	Arguments  string            `yaml:"arguments"`
	Output     string            `yaml:"output,omitempty"`
}

// writeLog writes the description followed by every job with its macros expanded.
func (j *JobInstructions) writeLog(w io.Writer) error {
	if _, err := io.WriteString(w, j.desc.String()+"\nFull List of Jobs:\n"); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for proc, it := range j.items {
		vars := map[string]string{
			"Cluster":   strconv.Itoa(j.clusterID),
			"ClusterId": strconv.Itoa(j.clusterID),
			"Process":   strconv.Itoa(proc),
			"ProcId":    strconv.Itoa(proc),
		}
		for k, v := range it {
			vars[k] = v
		}

		rec := jobRecord{
			Cluster:    j.clusterID,
			Process:    proc,
			Items:      it,
			Executable: j.expand("executable", vars),
			Arguments:  j.expand("arguments", vars),
			Output:     j.expand("output", vars),
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return enc.Close()
}

func (j *JobInstructions) expand(key string, vars map[string]string) string {
	v, ok := j.desc.Get(key)
	if !ok {
		return ""
	}
	return j.desc.Expand(v, vars)
}
