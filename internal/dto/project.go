package dto

// ProjectDocument is the wire shape of a project description.
// It uses "mapstructure" tags so JSON and YAML documents decode the same way.
type ProjectDocument struct {
	ProjectName string           `json:"projectName,omitempty" yaml:"projectName,omitempty" mapstructure:"projectName"`
	Author      string           `json:"author,omitempty" yaml:"author,omitempty" mapstructure:"author"`
	Nodes       []NodeDocument   `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Signals     []SignalDocument `json:"signals" yaml:"signals" mapstructure:"signals"`
	Entry       *EntryDocument   `json:"entry,omitempty" yaml:"entry,omitempty" mapstructure:"entry"`
}

type NodeDocument struct {
	Name   string `json:"name" yaml:"name" mapstructure:"name"`
	GUID   string `json:"guid" yaml:"guid" mapstructure:"guid"`
	Module string `json:"module" yaml:"module" mapstructure:"module"`
	Class  string `json:"class" yaml:"class" mapstructure:"class"`
}

// SignalDocument keeps the kind untyped: documents use either the name or the ordinal.
type SignalDocument struct {
	Source        string `json:"source" yaml:"source" mapstructure:"source"`
	Target        string `json:"target" yaml:"target" mapstructure:"target"`
	SourceSigName string `json:"sourceSigName" yaml:"sourceSigName" mapstructure:"sourceSigName"`
	TargetSigName string `json:"targetSigName" yaml:"targetSigName" mapstructure:"targetSigName"`
	SignalKind    any    `json:"signalKind" yaml:"signalKind" mapstructure:"signalKind"`
}

type EntryDocument struct {
	GUID    string `json:"guid" yaml:"guid" mapstructure:"guid"`
	SigName string `json:"sigName" yaml:"sigName" mapstructure:"sigName"`
}
