package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
)

const testModelID = "C1A2B3C4D5E6F7G8H9I0J1K2L3"

func TestGetMDSMetadataMaster(t *testing.T) {
	stmt := `CALL SYS.EXECUTE_MDS {"Analytics":{"DataSource":{"ObjectName":"t.4.:` + testModelID + `:ext"},
		"Definition":{"Dimensions":[{"Name":"Account"}]}}}`

	md, err := GetMDSMetadata(stmt, ModelMap{testModelID: "Finance Plan"})
	require.NoError(t, err)

	assert.Equal(t, MDSTypeMaster, md.MDSType)
	assert.Equal(t, "Account", md.Dimensions)
	assert.Equal(t, NotAvailable, md.ReadMode)
	assert.Equal(t, NotAvailable, md.Measures)
	assert.Equal(t, NotAvailable, md.MeasureType)
	assert.Equal(t, "", md.InputRecords)
	assert.Equal(t, testModelID, md.ModelID)
	assert.Equal(t, "Finance Plan", md.ModelName)
	assert.Equal(t, NotAvailable, md.StoryID)
	assert.Equal(t, NotAvailable, md.StoryName)
	assert.Equal(t, NotAvailable, md.WidgetID)
}

func TestGetMDSMetadataFactData(t *testing.T) {
	stmt := `{"ClientInfo":{"Context":{"StoryName":"Plan 2024","StoryId":"S1","WidgetId":["w1","w2"]}},
		"Analytics":{"DataSource":{"ObjectName":"t.4.:` + testModelID + `"},
		"Definition":{"Dimensions":[
			{"Name":"Account","ReadMode":"BookedAndSpaceAndState"},
			{"Name":"CustomDimension1","Members":[
				{"MemberName":"Amount"},
				{"Name":"AmountEUR","CurrencyTranslationName":"EUR"},
				{"Name":"Ref","MemberOperand":{"Value":"Restricted"}},
				{"Name":"Margin"}
			]},
			{"Name":"Date","ReadMode":"Booked"}
		]}}}`

	md, err := GetMDSMetadata(stmt, nil)
	require.NoError(t, err)

	assert.Equal(t, MDSTypeFactData, md.MDSType)
	assert.Equal(t, "Account|CustomDimension1|Date", md.Dimensions)
	assert.Equal(t, "BookedAndSpaceAndState|MEASURE|Booked", md.ReadMode)
	assert.Equal(t, "Amount|AmountEUR|Restricted|FORMULA - Margin", md.Measures)
	assert.Equal(t, "Stored|ConversionMeasure|Other|Formula", md.MeasureType)
	assert.Equal(t, "", md.InputRecords)
	assert.Equal(t, testModelID, md.ModelID)
	assert.Equal(t, NotAvailable, md.ModelName)
	assert.Equal(t, "Plan 2024", md.StoryName)
	assert.Equal(t, "S1", md.StoryID)
	assert.Equal(t, "w1|w2", md.WidgetID)
}

func TestGetMDSMetadataDataInput(t *testing.T) {
	stmt := `{"Analytics":{"DataSource":{"ObjectName":"short"},
		"Definition":{"Dimensions":[{"Name":"Account","ReadMode":"Booked"},{"Name":"Version","ReadMode":"Booked"}],
		"NewValues":[{"v":1},{"v":2},{"v":3}]}}}`

	md, err := GetMDSMetadata(stmt, nil)
	require.NoError(t, err)

	assert.Equal(t, MDSTypeDataInput, md.MDSType)
	assert.Equal(t, "3", md.InputRecords)
	assert.Equal(t, "Account|Version", md.Dimensions)
	assert.Equal(t, "Booked|Booked", md.ReadMode)
	assert.Equal(t, "", md.Measures)
	assert.Equal(t, NotAvailable, md.ModelID)
}

func TestGetMDSMetadataBatch(t *testing.T) {
	stmt := `{"ClientInfo":{"Context":{"StoryId":"S9"}},"Batch":[
		{"Analytics":{"Definition":{"Dimensions":[{"Name":"A"},{"Name":"B"}]}}},
		{"Analytics":{"Definition":{"Dimensions":[{"Name":"A"}]}}},
		{"Planning":{}}
	]}`

	md, err := GetMDSMetadata(stmt, nil)
	require.NoError(t, err)

	assert.Equal(t, MDSTypeBatch, md.MDSType)
	assert.Equal(t, "FactRead|MasterRead|", md.Dimensions)
	assert.Equal(t, NotAvailable, md.Measures)
	assert.Equal(t, NotAvailable, md.MeasureType)
	assert.Equal(t, "", md.ReadMode)
	assert.Equal(t, "", md.ModelID)
	assert.Equal(t, "S9", md.StoryID)
	assert.Equal(t, "", md.StoryName)
	assert.Equal(t, NotAvailable, md.WidgetID)
}

func TestGetMDSMetadataUnknownShape(t *testing.T) {
	md, err := GetMDSMetadata(`{"ClientInfo":{"Context":{"StoryId":"S1"}},"Metadata":{}}`, nil)
	require.NoError(t, err)
	assert.True(t, md.Empty())
}

func TestGetMDSMetadataErrors(t *testing.T) {
	_, err := GetMDSMetadata("CALL SYS.EXECUTE_MDS('Analytics')", nil)
	assert.True(t, errors.Is(err, errNoPayload))

	_, err = GetMDSMetadata(`CALL SYS.EXECUTE_MDS {"Analytics":`, nil)
	assert.Error(t, err)
}

func TestExtractMDSMetadataFromDecodedValue(t *testing.T) {
	v := fastjson.MustParse(`{"Analytics":{"Definition":{"Dimensions":[{"Name":"Entity","ReadMode":"Master"}]}}}`)
	md := ExtractMDSMetadata(v, nil)
	assert.Equal(t, MDSTypeMaster, md.MDSType)
	assert.Equal(t, "Master", md.ReadMode)
}

func TestParseObjectModelID(t *testing.T) {
	id, ok := parseObjectModelID("t.4.:" + testModelID + ":tail")
	assert.True(t, ok)
	assert.Equal(t, testModelID, id)

	id, ok = parseObjectModelID("t.4.:" + testModelID)
	assert.True(t, ok)
	assert.Equal(t, testModelID, id)

	_, ok = parseObjectModelID("t.4.:C1A2")
	assert.False(t, ok)
}

func TestMDSRecordValues(t *testing.T) {
	sum := SummaryRecord{StatementType: TypeMDS, ModelID: "View", ModelName: "View"}

	v := MDSRecord{Summary: sum, Metadata: MDSMetadata{ModelID: "M1", ModelName: "N/A", MDSType: MDSTypeMaster}}.Values()
	assert.Equal(t, "M1", v["MODEL_ID"])
	assert.Equal(t, "N/A", v["MODEL_NAME"])
	assert.NotContains(t, v, "STATEMENT_TYPE")

	v = MDSRecord{Summary: sum}.Values()
	assert.Equal(t, "View", v["MODEL_ID"])
	assert.Equal(t, "", v["MDS_TYPE"])
}
