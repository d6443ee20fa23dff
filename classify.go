package main

import "strings"

const (
	TypeMDS          = "MDS"
	TypeMDSOther     = "MDS_OTHER"
	TypeDataAction   = "DATA_ACTION"
	TypeEPMAction    = "EPM_ACTION"
	TypeEPMClose     = "EPM_CLOSE"
	TypeDAProcedure  = "DA_PROCEDURE"
	TypeLocking      = "LOCKING"
	TypeLockingOther = "LOCKING_OTHER"
	TypeHierarchy    = "HIERARCHY"
	TypeEPMBackup    = "EPM_BACKUP"
	TypeOther        = "OTHER"
)

type stmtRule struct {
	pattern string
	prefix  bool
	stmt    string
}

// Order matters: later patterns are substrings of contexts matched earlier.
var stmtRules = []stmtRule{
	{"CALL SYS.EXECUTE_MDS", true, TypeMDS},
	{"CALL EXECUTE_MDS", true, TypeMDSOther},
	{"CALL EPM_MODEL_COMMAND('actions'", true, TypeDataAction},
	{"CALL EPM_MODEL_COMMAND('action'", true, TypeEPMAction},
	{"CALL EPM_MODEL_COMMAND('close'", true, TypeEPMClose},
	{"sap.fpa.services.planningScript::", false, TypeDAProcedure},
	{"sap.fpa.services.dataLocking::LOCKS_INDEX", false, TypeLocking},
	{"sap.fpa.services.dataLocking", false, TypeLockingOther},
	{"$MDX//TENANT_B", false, TypeHierarchy},
	{"PDC:0::TEMPORARY", false, TypeEPMBackup},
}

// StatementTypes lists every tag the classifier can return.
var StatementTypes = []string{
	TypeMDS, TypeMDSOther, TypeDataAction, TypeEPMAction, TypeEPMClose,
	TypeDAProcedure, TypeLocking, TypeLockingOther, TypeHierarchy, TypeEPMBackup, TypeOther,
}

// dataActionTypes are the statement types correlated with user actions.
var dataActionTypes = map[string]bool{
	TypeDataAction: true,
	TypeEPMAction:  true,
	TypeEPMBackup:  true,
	TypeEPMClose:   true,
}

// getStmtType classifies a statement by its first matching rule.
func getStmtType(statement string) string {
	for _, r := range stmtRules {
		if r.prefix && strings.HasPrefix(statement, r.pattern) {
			return r.stmt
		}
		if !r.prefix && strings.Contains(statement, r.pattern) {
			return r.stmt
		}
	}
	return TypeOther
}

func isDataActionType(stmtType string) bool {
	return dataActionTypes[stmtType]
}

func isKnownType(stmtType string) bool {
	for _, t := range StatementTypes {
		if t == stmtType {
			return true
		}
	}
	return false
}
