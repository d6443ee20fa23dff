package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"
)

const (
	MDSTypeMaster    = "Master"
	MDSTypeDataInput = "DataInput"
	MDSTypeFactData  = "FactData"
	MDSTypeBatch     = "Batch"

	measureDimension = "CustomDimension1"
)

var errNoPayload = errors.New("statement has no JSON payload")

// payloadShape is the top level kind of an MDS request.
type payloadShape int

const (
	shapeUnknown payloadShape = iota
	shapeAnalytics
	shapeBatch
)

// mdsPayload is an MDS request decoded once: the story context it was sent
// from, if any, and the request body by shape.
type mdsPayload struct {
	context *fastjson.Value
	shape   payloadShape
	body    *fastjson.Value
}

func decodeMDSPayload(v *fastjson.Value) mdsPayload {
	p := mdsPayload{context: v.Get("ClientInfo", "Context")}
	switch {
	case v.Exists("Analytics"):
		p.shape, p.body = shapeAnalytics, v.Get("Analytics")
	case v.Exists("Batch"):
		p.shape, p.body = shapeBatch, v.Get("Batch")
	}
	return p
}

// GetMDSMetadata parses the JSON request embedded in an MDS statement,
// starting at its first '{'.
func GetMDSMetadata(statement string, models ModelMap) (MDSMetadata, error) {
	i := strings.IndexByte(statement, '{')
	if i < 0 {
		return MDSMetadata{}, errNoPayload
	}
	var p fastjson.Parser
	v, err := p.Parse(statement[i:])
	if err != nil {
		return MDSMetadata{}, fmt.Errorf("parse mds payload: %w", err)
	}
	return ExtractMDSMetadata(v, models), nil
}

// ExtractMDSMetadata derives metadata from a decoded MDS request. Requests
// that are neither Analytics nor Batch yield empty metadata.
func ExtractMDSMetadata(v *fastjson.Value, models ModelMap) MDSMetadata {
	p := decodeMDSPayload(v)
	if p.shape == shapeUnknown {
		return MDSMetadata{}
	}

	var m MDSMetadata
	storyContext(&m, p.context)
	switch p.shape {
	case shapeAnalytics:
		analyticsMetadata(&m, p.body, models)
	case shapeBatch:
		batchMetadata(&m, p.body)
	}
	return m
}

func storyContext(m *MDSMetadata, ctx *fastjson.Value) {
	m.StoryID, m.WidgetID = NotAvailable, NotAvailable
	if ctx == nil {
		m.StoryName = NotAvailable
		return
	}
	if ctx.Exists("StoryName") {
		m.StoryName = jsonString(ctx.Get("StoryName"))
	}
	if ctx.Exists("StoryId") {
		m.StoryID = jsonString(ctx.Get("StoryId"))
	}
	if w := ctx.Get("WidgetId"); w != nil {
		if w.Type() == fastjson.TypeArray {
			m.WidgetID = joinValues(w.GetArray())
		} else {
			m.WidgetID = jsonString(w)
		}
	}
}

func analyticsMetadata(m *MDSMetadata, analytics *fastjson.Value, models ModelMap) {
	m.ModelID, m.ModelName = NotAvailable, NotAvailable
	if id, ok := parseObjectModelID(jsonString(analytics.Get("DataSource", "ObjectName"))); ok {
		m.ModelID = id
		m.ModelName = models.Name(id, NotAvailable)
	}

	definition := analytics.Get("Definition")
	dims := definition.GetArray("Dimensions")

	if len(dims) == 1 {
		m.MDSType = MDSTypeMaster
		m.Dimensions = jsonString(dims[0].Get("Name"))
		m.ReadMode = NotAvailable
		if dims[0].Exists("ReadMode") {
			m.ReadMode = jsonString(dims[0].Get("ReadMode"))
		}
		m.Measures, m.MeasureType = NotAvailable, NotAvailable
		return
	}

	if definition.Exists("NewValues") {
		m.MDSType = MDSTypeDataInput
		m.InputRecords = strconv.Itoa(jsonLen(definition.Get("NewValues")))
	} else {
		m.MDSType = MDSTypeFactData
	}

	var names, readModes []string
	for _, dim := range dims {
		name := jsonString(dim.Get("Name"))
		names = append(names, name)
		if name != measureDimension {
			readMode := NotAvailable
			if dim.Exists("ReadMode") {
				readMode = jsonString(dim.Get("ReadMode"))
			}
			readModes = append(readModes, readMode)
			continue
		}

		readModes = append(readModes, "MEASURE")
		var measures, types []string
		for _, member := range dim.GetArray("Members") {
			measure, kind := classifyMeasure(member)
			measures = append(measures, measure)
			types = append(types, kind)
		}
		m.Measures = strings.Join(measures, "|")
		m.MeasureType = strings.Join(types, "|")
	}
	m.Dimensions = strings.Join(names, "|")
	m.ReadMode = strings.Join(readModes, "|")
}

// classifyMeasure returns the label and kind of a member of the measure dimension.
func classifyMeasure(member *fastjson.Value) (string, string) {
	switch {
	case member.Exists("MemberName"):
		return jsonString(member.Get("MemberName")), "Stored"
	case member.Exists("CurrencyTranslationName"):
		return jsonString(member.Get("Name")), "ConversionMeasure"
	case member.Exists("MemberOperand"):
		return jsonString(member.Get("MemberOperand", "Value")), "Other"
	default:
		return "FORMULA - " + jsonString(member.Get("Name")), "Formula"
	}
}

func batchMetadata(m *MDSMetadata, batch *fastjson.Value) {
	m.MDSType = MDSTypeBatch
	m.Measures, m.MeasureType = NotAvailable, NotAvailable

	entries := batch.GetArray()
	kinds := make([]string, 0, len(entries))
	for _, entry := range entries {
		kinds = append(kinds, batchType(entry))
	}
	m.Dimensions = strings.Join(kinds, "|")
}

// batchType is FactRead for multi-dimension reads, MasterRead for single
// dimension reads and empty for entries without an Analytics request.
func batchType(entry *fastjson.Value) string {
	analytics := entry.Get("Analytics")
	if analytics == nil || analytics.Type() == fastjson.TypeNull {
		return ""
	}
	if len(analytics.GetArray("Definition", "Dimensions")) > 1 {
		return "FactRead"
	}
	return "MasterRead"
}

const (
	objectNamePrefixLen = 5
	modelIDLen          = 26
)

// parseObjectModelID extracts the model id from a data source object name.
// The name starts with a 5 character package prefix (e.g. "t.4.:")
// followed by the 26 character model id; anything after is ignored.
func parseObjectModelID(objectName string) (string, bool) {
	end := objectNamePrefixLen + modelIDLen
	if len(objectName) < end {
		return "", false
	}
	return objectName[objectNamePrefixLen:end], true
}

// jsonString renders a value as text: strings unquoted, everything else as JSON.
func jsonString(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	if v.Type() == fastjson.TypeString {
		return string(v.GetStringBytes())
	}
	return v.String()
}

func joinValues(vs []*fastjson.Value) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, jsonString(v))
	}
	return strings.Join(parts, "|")
}

func jsonLen(v *fastjson.Value) int {
	switch v.Type() {
	case fastjson.TypeArray:
		return len(v.GetArray())
	case fastjson.TypeObject:
		o, _ := v.Object()
		return o.Len()
	case fastjson.TypeString:
		return len(v.GetStringBytes())
	}
	return 0
}
