package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds every sync job declared in a config file, in declaration
// order. Mapping order inside a job matters (compound primary keys follow
// it), so parsing never goes through plain Go maps.
type Config struct {
	IDColumnMatchers []string
	Jobs             map[string]*SyncJob

	jobOrder  []string
	configDir string
}

// loadConfig reads a YAML (default) or TOML (.toml/.tml) job config and
// validates every job, reporting all problems together.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, configErrorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		cfg, err = parseTOMLConfig(data)
	default:
		cfg, err = parseYAMLConfig(data)
	}
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.configDir = filepath.Dir(absPath)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// JobNames returns the job names in declaration order.
func (c *Config) JobNames() []string {
	return append([]string(nil), c.jobOrder...)
}

// ResolveJob returns the named job, or the only job when name is empty.
func (c *Config) ResolveJob(name string) (*SyncJob, error) {
	if name != "" {
		job, ok := c.Jobs[name]
		if !ok {
			return nil, configErrorf("job %q not found in config (available: %s)",
				name, strings.Join(c.jobOrder, ", "))
		}
		return job, nil
	}
	switch len(c.jobOrder) {
	case 0:
		return nil, configErrorf("config contains no jobs")
	case 1:
		return c.Jobs[c.jobOrder[0]], nil
	default:
		return nil, configErrorf("config contains %d jobs; specify one of: %s",
			len(c.jobOrder), strings.Join(c.jobOrder, ", "))
	}
}

// AddJob inserts a job, refusing to replace an existing one unless forced.
func (c *Config) AddJob(job *SyncJob, force bool) error {
	if _, exists := c.Jobs[job.Name]; exists {
		if !force {
			return configErrorf("job %q already exists", job.Name)
		}
	} else {
		c.jobOrder = append(c.jobOrder, job.Name)
	}
	if c.Jobs == nil {
		c.Jobs = make(map[string]*SyncJob)
	}
	c.Jobs[job.Name] = job
	return nil
}

// resolvePath resolves a path relative to the config file directory.
func (c *Config) resolvePath(p string) string {
	if filepath.IsAbs(p) || c.configDir == "" {
		return p
	}
	return filepath.Join(c.configDir, p)
}

// --- YAML parsing ---

func parseYAMLConfig(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, configErrorf("invalid yaml: %v", err)
	}
	if len(doc.Content) == 0 {
		return nil, configErrorf("config must contain a 'jobs' section")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, configErrorf("config root must be a mapping")
	}

	cfg := &Config{Jobs: make(map[string]*SyncJob)}
	jobsSeen := false

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "id_column_matchers":
			if err := val.Decode(&cfg.IDColumnMatchers); err != nil {
				return nil, configErrorf("id_column_matchers must be a list of strings: %v", err)
			}
		case "jobs":
			jobsSeen = true
			if isNullNode(val) {
				continue
			}
			if val.Kind != yaml.MappingNode {
				return nil, configErrorf("'jobs' must be a mapping of job names")
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				name := val.Content[j].Value
				job, err := parseYAMLJob(name, val.Content[j+1])
				if err != nil {
					return nil, err
				}
				cfg.Jobs[name] = job
				cfg.jobOrder = append(cfg.jobOrder, name)
			}
		default:
			return nil, configErrorf("unknown config key %q", key.Value)
		}
	}
	if !jobsSeen {
		return nil, configErrorf("config must contain a 'jobs' section")
	}
	return cfg, nil
}

func parseYAMLJob(name string, node *yaml.Node) (*SyncJob, error) {
	if node.Kind != yaml.MappingNode {
		return nil, configErrorf("job %q must be a mapping", name)
	}
	job := &SyncJob{Name: name}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "target_table":
			job.TargetTable = val.Value
		case "id_mapping":
			mappings, err := parseYAMLMappings(name, "id_mapping", val)
			if err != nil {
				return nil, err
			}
			job.IDMapping = mappings
		case "columns":
			mappings, err := parseYAMLMappings(name, "columns", val)
			if err != nil {
				return nil, err
			}
			job.Columns = mappings
		case "filename_to_column":
			f, err := parseYAMLFilename(name, val)
			if err != nil {
				return nil, err
			}
			job.FilenameToColumn = f
		case "indexes":
			indexes, err := parseYAMLIndexes(name, val)
			if err != nil {
				return nil, err
			}
			job.Indexes = indexes
		case "sample_percentage":
			var pct float64
			if err := val.Decode(&pct); err != nil {
				return nil, configErrorf("job %q: sample_percentage must be a number: %v", name, err)
			}
			job.SamplePercentage = &pct
		case "post_sync":
			if err := val.Decode(&job.PostSync); err != nil {
				return nil, configErrorf("job %q: post_sync must be a list of paths: %v", name, err)
			}
		default:
			return nil, configErrorf("job %q: unknown key %q", name, key.Value)
		}
	}
	return job, nil
}

func parseYAMLMappings(jobName, section string, node *yaml.Node) ([]ColumnMapping, error) {
	if isNullNode(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, configErrorf("job %q: %s must be a mapping of source columns", jobName, section)
	}

	var mappings []ColumnMapping
	for i := 0; i+1 < len(node.Content); i += 2 {
		src, val := node.Content[i].Value, node.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			mappings = append(mappings, ColumnMapping{
				SourceColumn: src,
				DBColumn:     val.Value,
				simple:       true,
			})
		case yaml.MappingNode:
			m := ColumnMapping{SourceColumn: src}
			for j := 0; j+1 < len(val.Content); j += 2 {
				field, fval := val.Content[j].Value, val.Content[j+1]
				switch field {
				case "db_column":
					m.DBColumn = fval.Value
				case "type":
					m.DataType = fval.Value
				case "nullable":
					var b bool
					if err := fval.Decode(&b); err != nil {
						return nil, configErrorf("job %q: %s %q: nullable must be a boolean: %v",
							jobName, section, src, err)
					}
					m.Nullable = &b
				case "lookup":
					if err := fval.Decode(&m.Lookup); err != nil {
						return nil, configErrorf("job %q: %s %q: lookup must be a mapping: %v",
							jobName, section, src, err)
					}
				case "transform":
					m.Transform = fval.Value
				default:
					return nil, configErrorf("job %q: %s %q: unknown key %q", jobName, section, src, field)
				}
			}
			mappings = append(mappings, m)
		default:
			return nil, configErrorf("job %q: %s %q must be a string or a mapping", jobName, section, src)
		}
	}
	return mappings, nil
}

func parseYAMLFilename(jobName string, node *yaml.Node) (*FilenameToColumn, error) {
	if node.Kind != yaml.MappingNode {
		return nil, configErrorf("job %q: filename_to_column must be a mapping", jobName)
	}
	f := &FilenameToColumn{}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "template":
			f.Template = val.Value
		case "regex":
			f.Regex = val.Value
		case "columns":
			if val.Kind != yaml.MappingNode {
				return nil, configErrorf("job %q: filename_to_column columns must be a mapping", jobName)
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				colName, colVal := val.Content[j].Value, val.Content[j+1]
				col := FilenameColumn{Name: colName, DBColumn: colName}
				if !isNullNode(colVal) {
					if colVal.Kind != yaml.MappingNode {
						return nil, configErrorf("job %q: filename column %q must be null or a mapping",
							jobName, colName)
					}
					for k := 0; k+1 < len(colVal.Content); k += 2 {
						field, fval := colVal.Content[k].Value, colVal.Content[k+1]
						switch field {
						case "db_column":
							col.DBColumn = fval.Value
						case "type":
							col.DataType = fval.Value
						case "use_to_delete_old_rows":
							if err := fval.Decode(&col.UseToDeleteOldRows); err != nil {
								return nil, configErrorf("job %q: filename column %q: use_to_delete_old_rows must be a boolean: %v",
									jobName, colName, err)
							}
						default:
							return nil, configErrorf("job %q: filename column %q: unknown key %q",
								jobName, colName, field)
						}
					}
				}
				f.Columns = append(f.Columns, col)
			}
		default:
			return nil, configErrorf("job %q: filename_to_column: unknown key %q", jobName, key.Value)
		}
	}
	return f, nil
}

func parseYAMLIndexes(jobName string, node *yaml.Node) ([]Index, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, configErrorf("job %q: indexes must be a list", jobName)
	}

	var indexes []Index
	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return nil, configErrorf("job %q: each index must be a mapping", jobName)
		}
		var idx Index
		for i := 0; i+1 < len(item.Content); i += 2 {
			key, val := item.Content[i], item.Content[i+1]
			switch key.Value {
			case "name":
				idx.Name = val.Value
			case "columns":
				if val.Kind != yaml.SequenceNode {
					return nil, configErrorf("job %q: index columns must be a list", jobName)
				}
				for _, colItem := range val.Content {
					var col IndexColumn
					if err := colItem.Decode(&struct {
						Column *string `yaml:"column"`
						Order  *string `yaml:"order"`
					}{&col.Column, &col.Order}); err != nil {
						return nil, configErrorf("job %q: index column entry: %v", jobName, err)
					}
					idx.Columns = append(idx.Columns, col)
				}
			default:
				return nil, configErrorf("job %q: index: unknown key %q", jobName, key.Value)
			}
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

func isNullNode(n *yaml.Node) bool {
	return n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// --- TOML parsing ---

// The same job shape is accepted as TOML. BurntSushi decodes tables into
// unordered maps, so mapping order is recovered from toml.MetaData.Keys().

type tomlConfigFile struct {
	IDColumnMatchers []string           `toml:"id_column_matchers"`
	Jobs             map[string]tomlJob `toml:"jobs"`
}

type tomlJob struct {
	TargetTable      string                     `toml:"target_table"`
	IDMapping        map[string]tomlColumnValue `toml:"id_mapping"`
	Columns          map[string]tomlColumnValue `toml:"columns"`
	FilenameToColumn *tomlFilename              `toml:"filename_to_column"`
	Indexes          []tomlIndex                `toml:"indexes"`
	SamplePercentage *float64                   `toml:"sample_percentage"`
	PostSync         []string                   `toml:"post_sync"`
}

type tomlFilename struct {
	Template string                        `toml:"template"`
	Regex    string                        `toml:"regex"`
	Columns  map[string]tomlFilenameColumn `toml:"columns"`
}

type tomlFilenameColumn struct {
	DBColumn           string `toml:"db_column"`
	Type               string `toml:"type"`
	UseToDeleteOldRows bool   `toml:"use_to_delete_old_rows"`
}

type tomlIndex struct {
	Name    string            `toml:"name"`
	Columns []tomlIndexColumn `toml:"columns"`
}

type tomlIndexColumn struct {
	Column string `toml:"column"`
	Order  string `toml:"order"`
}

// tomlColumnValue accepts either the bare-string form or the extended table
// form of a column mapping.
type tomlColumnValue struct {
	simple    bool
	dbColumn  string
	dataType  string
	nullable  *bool
	lookup    map[string]string
	transform string
}

func (v *tomlColumnValue) UnmarshalTOML(raw any) error {
	switch t := raw.(type) {
	case string:
		v.simple = true
		v.dbColumn = t
	case map[string]any:
		for key, fval := range t {
			switch key {
			case "db_column":
				s, ok := fval.(string)
				if !ok {
					return fmt.Errorf("db_column must be a string")
				}
				v.dbColumn = s
			case "type":
				s, ok := fval.(string)
				if !ok {
					return fmt.Errorf("type must be a string")
				}
				v.dataType = s
			case "nullable":
				b, ok := fval.(bool)
				if !ok {
					return fmt.Errorf("nullable must be a boolean")
				}
				v.nullable = &b
			case "transform":
				s, ok := fval.(string)
				if !ok {
					return fmt.Errorf("transform must be a string")
				}
				v.transform = s
			case "lookup":
				m, ok := fval.(map[string]any)
				if !ok {
					return fmt.Errorf("lookup must be a table")
				}
				v.lookup = make(map[string]string, len(m))
				for lk, lv := range m {
					s, ok := lv.(string)
					if !ok {
						return fmt.Errorf("lookup value for %q must be a string", lk)
					}
					v.lookup[lk] = s
				}
			default:
				return fmt.Errorf("unknown column mapping key %q", key)
			}
		}
	default:
		return fmt.Errorf("column mapping must be a string or a table")
	}
	return nil
}

func (v tomlColumnValue) toMapping(src string) ColumnMapping {
	return ColumnMapping{
		SourceColumn: src,
		DBColumn:     v.dbColumn,
		DataType:     v.dataType,
		Nullable:     v.nullable,
		Lookup:       v.lookup,
		Transform:    v.transform,
		simple:       v.simple,
	}
}

func parseTOMLConfig(data []byte) (*Config, error) {
	var file tomlConfigFile
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, configErrorf("invalid toml: %v", err)
	}
	if unknown := md.Undecoded(); len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, k := range unknown {
			keys[i] = k.String()
		}
		return nil, configErrorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if !md.IsDefined("jobs") {
		return nil, configErrorf("config must contain a 'jobs' section")
	}

	order := tomlKeyOrder(md)

	cfg := &Config{
		IDColumnMatchers: file.IDColumnMatchers,
		Jobs:             make(map[string]*SyncJob),
	}
	for _, jobName := range order.jobs {
		raw := file.Jobs[jobName]
		job := &SyncJob{
			Name:             jobName,
			TargetTable:      raw.TargetTable,
			SamplePercentage: raw.SamplePercentage,
			PostSync:         raw.PostSync,
		}
		for _, src := range order.sections[jobName]["id_mapping"] {
			job.IDMapping = append(job.IDMapping, raw.IDMapping[src].toMapping(src))
		}
		for _, src := range order.sections[jobName]["columns"] {
			job.Columns = append(job.Columns, raw.Columns[src].toMapping(src))
		}
		if raw.FilenameToColumn != nil {
			f := &FilenameToColumn{
				Template: raw.FilenameToColumn.Template,
				Regex:    raw.FilenameToColumn.Regex,
			}
			for _, name := range order.sections[jobName]["filename_columns"] {
				col := raw.FilenameToColumn.Columns[name]
				db := col.DBColumn
				if db == "" {
					db = name
				}
				f.Columns = append(f.Columns, FilenameColumn{
					Name:               name,
					DBColumn:           db,
					DataType:           col.Type,
					UseToDeleteOldRows: col.UseToDeleteOldRows,
				})
			}
			job.FilenameToColumn = f
		}
		for _, idx := range raw.Indexes {
			index := Index{Name: idx.Name}
			for _, c := range idx.Columns {
				index.Columns = append(index.Columns, IndexColumn{Column: c.Column, Order: c.Order})
			}
			job.Indexes = append(job.Indexes, index)
		}
		cfg.Jobs[jobName] = job
		cfg.jobOrder = append(cfg.jobOrder, jobName)
	}
	return cfg, nil
}

type tomlOrder struct {
	jobs     []string
	sections map[string]map[string][]string // job -> section -> source columns
}

// tomlKeyOrder rebuilds declaration order from the decoder's key sequence.
func tomlKeyOrder(md toml.MetaData) tomlOrder {
	order := tomlOrder{sections: make(map[string]map[string][]string)}
	seenJob := make(map[string]bool)
	seenCol := make(map[string]bool)

	record := func(job, section, col string) {
		key := job + "\x00" + section + "\x00" + col
		if seenCol[key] {
			return
		}
		seenCol[key] = true
		if order.sections[job] == nil {
			order.sections[job] = make(map[string][]string)
		}
		order.sections[job][section] = append(order.sections[job][section], col)
	}

	for _, k := range md.Keys() {
		parts := []string(k)
		if len(parts) < 2 || parts[0] != "jobs" {
			continue
		}
		job := parts[1]
		if !seenJob[job] {
			seenJob[job] = true
			order.jobs = append(order.jobs, job)
		}
		if len(parts) >= 4 && (parts[2] == "id_mapping" || parts[2] == "columns") {
			record(job, parts[2], parts[3])
		}
		if len(parts) >= 5 && parts[2] == "filename_to_column" && parts[3] == "columns" {
			record(job, "filename_columns", parts[4])
		}
	}
	return order
}

// --- Validation ---

// validate checks every job and reports all problems in one error.
func (c *Config) validate() error {
	var problems []string
	for _, name := range c.jobOrder {
		for _, p := range validateJob(c.Jobs[name]) {
			problems = append(problems, fmt.Sprintf("job %q: %s", name, p))
		}
	}
	if len(problems) > 0 {
		return &ConfigError{Msg: "invalid config: " + strings.Join(problems, "; ")}
	}
	return nil
}

func validateJob(job *SyncJob) []string {
	var problems []string

	if strings.TrimSpace(job.TargetTable) == "" {
		problems = append(problems, "missing target_table")
	}
	if len(job.IDMapping) == 0 {
		problems = append(problems, "id_mapping must contain at least one column")
	}

	destinations := make(map[string]string)
	checkMapping := func(section string, m ColumnMapping) {
		if m.DBColumn == "" {
			problems = append(problems, fmt.Sprintf("%s %q has no db_column", section, m.SourceColumn))
			return
		}
		if m.Transform != "" {
			if _, ok := transforms[m.Transform]; !ok {
				problems = append(problems, fmt.Sprintf("%s %q: unknown transform %q", section, m.SourceColumn, m.Transform))
			}
		}
		if prev, dup := destinations[m.DBColumn]; dup {
			problems = append(problems, fmt.Sprintf("duplicate destination column %q (also mapped in %s)", m.DBColumn, prev))
			return
		}
		destinations[m.DBColumn] = section
	}
	for _, m := range job.IDMapping {
		checkMapping("id_mapping", m)
	}
	for _, m := range job.Columns {
		checkMapping("columns", m)
	}

	if f := job.FilenameToColumn; f != nil {
		if len(f.Columns) == 0 {
			problems = append(problems, "filename_to_column must have columns")
		}
		if err := f.compile(); err != nil {
			problems = append(problems, err.Error())
		}
		for _, col := range f.Columns {
			if prev, dup := destinations[col.DBColumn]; dup {
				problems = append(problems, fmt.Sprintf("duplicate destination column %q (also mapped in %s)", col.DBColumn, prev))
				continue
			}
			destinations[col.DBColumn] = "filename_to_column"
		}
	}

	for i := range job.Indexes {
		idx := &job.Indexes[i]
		if idx.Name == "" {
			problems = append(problems, "index missing name")
		}
		if len(idx.Columns) == 0 {
			problems = append(problems, fmt.Sprintf("index %q must have at least one column", idx.Name))
		}
		for j := range idx.Columns {
			col := &idx.Columns[j]
			switch col.Order {
			case "":
				col.Order = "ASC"
			case "ASC", "DESC":
			default:
				problems = append(problems, fmt.Sprintf("index %q: order must be \"ASC\" or \"DESC\", got %q", idx.Name, col.Order))
			}
		}
	}

	return problems
}

// --- Saving ---

// Save writes the config back as YAML, preserving job and mapping order and
// the minimal bare-string form for untyped mappings.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c.yamlDoc())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) yamlDoc() *yaml.Node {
	root := &yaml.Node{Kind: yaml.MappingNode}

	if len(c.IDColumnMatchers) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, m := range c.IDColumnMatchers {
			seq.Content = append(seq.Content, strNode(m))
		}
		root.Content = append(root.Content, strNode("id_column_matchers"), seq)
	}

	jobs := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range c.jobOrder {
		jobs.Content = append(jobs.Content, strNode(name), jobYAMLNode(c.Jobs[name]))
	}
	root.Content = append(root.Content, strNode("jobs"), jobs)
	return root
}

func jobYAMLNode(job *SyncJob) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, val *yaml.Node) {
		n.Content = append(n.Content, strNode(key), val)
	}

	add("target_table", strNode(job.TargetTable))
	add("id_mapping", mappingsYAMLNode(job.IDMapping))
	if len(job.Columns) > 0 {
		add("columns", mappingsYAMLNode(job.Columns))
	}
	if f := job.FilenameToColumn; f != nil {
		add("filename_to_column", filenameYAMLNode(f))
	}
	if len(job.Indexes) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, idx := range job.Indexes {
			cols := &yaml.Node{Kind: yaml.SequenceNode}
			for _, col := range idx.Columns {
				entry := &yaml.Node{Kind: yaml.MappingNode}
				entry.Content = append(entry.Content,
					strNode("column"), strNode(col.Column),
					strNode("order"), strNode(col.Order))
				cols.Content = append(cols.Content, entry)
			}
			item := &yaml.Node{Kind: yaml.MappingNode}
			item.Content = append(item.Content,
				strNode("name"), strNode(idx.Name),
				strNode("columns"), cols)
			seq.Content = append(seq.Content, item)
		}
		add("indexes", seq)
	}
	if job.SamplePercentage != nil {
		add("sample_percentage", numNode(*job.SamplePercentage))
	}
	if len(job.PostSync) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, p := range job.PostSync {
			seq.Content = append(seq.Content, strNode(p))
		}
		add("post_sync", seq)
	}
	return n
}

func mappingsYAMLNode(mappings []ColumnMapping) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, m := range mappings {
		n.Content = append(n.Content, strNode(m.SourceColumn), mappingYAMLNode(m))
	}
	return n
}

func mappingYAMLNode(m ColumnMapping) *yaml.Node {
	if m.DataType == "" && m.Nullable == nil && len(m.Lookup) == 0 && m.Transform == "" {
		return strNode(m.DBColumn)
	}
	n := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, val *yaml.Node) {
		n.Content = append(n.Content, strNode(key), val)
	}
	add("db_column", strNode(m.DBColumn))
	if m.DataType != "" {
		add("type", strNode(m.DataType))
	}
	if m.Nullable != nil {
		add("nullable", boolNode(*m.Nullable))
	}
	if len(m.Lookup) > 0 {
		keys := make([]string, 0, len(m.Lookup))
		for k := range m.Lookup {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lookup := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			lookup.Content = append(lookup.Content, strNode(k), strNode(m.Lookup[k]))
		}
		add("lookup", lookup)
	}
	if m.Transform != "" {
		add("transform", strNode(m.Transform))
	}
	return n
}

func filenameYAMLNode(f *FilenameToColumn) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, val *yaml.Node) {
		n.Content = append(n.Content, strNode(key), val)
	}
	if f.Template != "" {
		add("template", strNode(f.Template))
	} else {
		add("regex", strNode(f.Regex))
	}

	cols := &yaml.Node{Kind: yaml.MappingNode}
	for _, col := range f.Columns {
		if col.DBColumn == col.Name && col.DataType == "" && !col.UseToDeleteOldRows {
			cols.Content = append(cols.Content, strNode(col.Name), nullNode())
			continue
		}
		entry := &yaml.Node{Kind: yaml.MappingNode}
		entryAdd := func(key string, val *yaml.Node) {
			entry.Content = append(entry.Content, strNode(key), val)
		}
		if col.DBColumn != col.Name {
			entryAdd("db_column", strNode(col.DBColumn))
		}
		if col.DataType != "" {
			entryAdd("type", strNode(col.DataType))
		}
		if col.UseToDeleteOldRows {
			entryAdd("use_to_delete_old_rows", boolNode(true))
		}
		cols.Content = append(cols.Content, strNode(col.Name), entry)
	}
	add("columns", cols)
	return n
}

func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func boolNode(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
}

func numNode(v float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(v, 'g', -1, 64)}
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
