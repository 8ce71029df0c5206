// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package audit

import (
	"fmt"
	"sort"
	"strings"
)

// Category is the record discriminant. It is a pure function of EventCode.
type Category string

const (
	CategorySystem   Category = "SYSTEM"
	CategoryUser     Category = "USER"
	CategoryHelpdesk Category = "HELPDESK"
)

// EventCode identifies an entry in the event catalog.
type EventCode string

// System events
const (
	EventStartup         EventCode = "STARTUP"
	EventShutdown        EventCode = "SHUTDOWN"
	EventFatalEvent      EventCode = "FATAL_EVENT"
	EventIntruderLock    EventCode = "INTRUDER_LOCK"
	EventIntruderAttempt EventCode = "INTRUDER_ATTEMPT"
	EventHealthChange    EventCode = "HEALTH_CHANGE"
	EventClusterLeader   EventCode = "CLUSTER_LEADER"
	EventConfigModified  EventCode = "MODIFY_CONFIGURATION"
)

// User events
const (
	EventAuthenticate        EventCode = "AUTHENTICATE"
	EventAuthenticateFailure EventCode = "AUTHENTICATE_FAILURE"
	EventChangePassword      EventCode = "CHANGE_PASSWORD"
	EventUnlockPassword      EventCode = "UNLOCK_PASSWORD"
	EventRecoverPassword     EventCode = "RECOVER_PASSWORD"
	EventSetResponses        EventCode = "SET_RESPONSES"
	EventClearResponses      EventCode = "CLEAR_RESPONSES"
	EventSetOTPSecret        EventCode = "SET_OTP_SECRET"
	EventActivateUser        EventCode = "ACTIVATE_USER"
	EventCreateUser          EventCode = "CREATE_USER"
	EventUpdateProfile       EventCode = "UPDATE_PROFILE"
	EventDeleteAccount       EventCode = "DELETE_ACCOUNT"
	EventAgreementPassed     EventCode = "AGREEMENT_PASSED"
	EventTokenIssued         EventCode = "TOKEN_ISSUED"
	EventTokenClaimed        EventCode = "TOKEN_CLAIMED"
	EventIntruderUserLock    EventCode = "INTRUDER_USER_LOCK"
	EventIntruderUserAttempt EventCode = "INTRUDER_USER_ATTEMPT"
)

// Helpdesk events
const (
	EventHelpdeskSetPassword      EventCode = "HELPDESK_SET_PASSWORD"
	EventHelpdeskUnlockPassword   EventCode = "HELPDESK_UNLOCK_PASSWORD"
	EventHelpdeskClearResponses   EventCode = "HELPDESK_CLEAR_RESPONSES"
	EventHelpdeskClearOTPSecret   EventCode = "HELPDESK_CLEAR_OTP_SECRET"
	EventHelpdeskAction           EventCode = "HELPDESK_ACTION"
	EventHelpdeskDeleteUser       EventCode = "HELPDESK_DELETE_USER"
	EventHelpdeskViewDetail       EventCode = "HELPDESK_VIEW_DETAIL"
	EventHelpdeskVerifyOTP        EventCode = "HELPDESK_VERIFY_OTP"
	EventHelpdeskVerifyOTPFailure EventCode = "HELPDESK_VERIFY_OTP_INCORRECT"
)

// SIEM outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeUnknown = "unknown"
)

// EventInfo is the static catalog metadata of one event code.
type EventInfo struct {
	Code       EventCode
	Category   Category
	MessageKey string
	Name       string
	// Narrative is a template; %field% placeholders are expanded per record.
	Narrative string
	Taxonomy  string
	Outcome   string
	// Severity is a CEF severity, 0 (lowest) to 10.
	Severity int
}

var catalog = map[EventCode]EventInfo{}

func register(infos ...EventInfo) {
	for _, info := range infos {
		if _, dup := catalog[info.Code]; dup {
			panic(fmt.Sprintf("audit: duplicate event code %s", info.Code))
		}
		catalog[info.Code] = info
	}
}

//nolint:gochecknoinits // static catalog
func init() {
	register(
		EventInfo{EventStartup, CategorySystem, "EventLog_Startup", "Startup",
			"Application instance %instance% started", "/System/Lifecycle/Start", OutcomeSuccess, 3},
		EventInfo{EventShutdown, CategorySystem, "EventLog_Shutdown", "Shutdown",
			"Application instance %instance% stopped", "/System/Lifecycle/Stop", OutcomeSuccess, 3},
		EventInfo{EventFatalEvent, CategorySystem, "EventLog_FatalEvent", "Fatal Event",
			"Fatal error on instance %instance%: %message%", "/System/Lifecycle/Fault", OutcomeFailure, 9},
		EventInfo{EventIntruderLock, CategorySystem, "EventLog_IntruderLock", "Intruder Lock",
			"Intruder lockout triggered: %message%", "/System/Intrusion/Lock", OutcomeFailure, 7},
		EventInfo{EventIntruderAttempt, CategorySystem, "EventLog_IntruderAttempt", "Intruder Attempt",
			"Intruder attempt recorded: %message%", "/System/Intrusion/Attempt", OutcomeFailure, 6},
		EventInfo{EventHealthChange, CategorySystem, "EventLog_HealthChange", "Health Change",
			"Health status changed on %instance%: %message%", "/System/Health/Change", OutcomeUnknown, 4},
		EventInfo{EventClusterLeader, CategorySystem, "EventLog_ClusterLeader", "Cluster Leader",
			"Instance %instance% became cluster leader", "/System/Cluster/Leader", OutcomeSuccess, 2},
		EventInfo{EventConfigModified, CategorySystem, "EventLog_ModifyConfiguration", "Modify Configuration",
			"Configuration modified on %instance%", "/System/Configuration/Modify", OutcomeSuccess, 5},

		EventInfo{EventAuthenticate, CategoryUser, "EventLog_Authenticate", "Authenticate",
			"%perpetratorID% authenticated from %sourceAddress%", "/Authentication/Verify", OutcomeSuccess, 3},
		EventInfo{EventAuthenticateFailure, CategoryUser, "EventLog_AuthenticateFailure", "Authenticate Failure",
			"Authentication failed for %perpetratorID% from %sourceAddress%", "/Authentication/Verify", OutcomeFailure, 5},
		EventInfo{EventChangePassword, CategoryUser, "EventLog_ChangePassword", "Change Password",
			"%perpetratorID% changed their password", "/Account/Credential/Modify", OutcomeSuccess, 5},
		EventInfo{EventUnlockPassword, CategoryUser, "EventLog_UnlockPassword", "Unlock Password",
			"%perpetratorID% unlocked their account", "/Account/Lock/Clear", OutcomeSuccess, 5},
		EventInfo{EventRecoverPassword, CategoryUser, "EventLog_RecoverPassword", "Recover Password",
			"%perpetratorID% recovered their password", "/Account/Credential/Recover", OutcomeSuccess, 6},
		EventInfo{EventSetResponses, CategoryUser, "EventLog_SetResponses", "Set Responses",
			"%perpetratorID% saved recovery responses", "/Account/Recovery/Modify", OutcomeSuccess, 4},
		EventInfo{EventClearResponses, CategoryUser, "EventLog_ClearResponses", "Clear Responses",
			"%perpetratorID% cleared recovery responses", "/Account/Recovery/Clear", OutcomeSuccess, 4},
		EventInfo{EventSetOTPSecret, CategoryUser, "EventLog_SetOtpSecret", "Set OTP Secret",
			"%perpetratorID% enrolled a one-time password secret", "/Account/OTP/Modify", OutcomeSuccess, 5},
		EventInfo{EventActivateUser, CategoryUser, "EventLog_ActivateUser", "Activate User",
			"%perpetratorID% activated their account", "/Account/Activate", OutcomeSuccess, 4},
		EventInfo{EventCreateUser, CategoryUser, "EventLog_CreateUser", "Create User",
			"Account %perpetratorID% created", "/Account/Create", OutcomeSuccess, 4},
		EventInfo{EventUpdateProfile, CategoryUser, "EventLog_UpdateProfile", "Update Profile",
			"%perpetratorID% updated their profile", "/Account/Profile/Modify", OutcomeSuccess, 3},
		EventInfo{EventDeleteAccount, CategoryUser, "EventLog_DeleteAccount", "Delete Account",
			"%perpetratorID% deleted their account", "/Account/Delete", OutcomeSuccess, 6},
		EventInfo{EventAgreementPassed, CategoryUser, "EventLog_AgreementPassed", "Agreement Passed",
			"%perpetratorID% accepted the usage agreement", "/Account/Agreement/Accept", OutcomeSuccess, 2},
		EventInfo{EventTokenIssued, CategoryUser, "EventLog_TokenIssued", "Token Issued",
			"Verification token issued to %perpetratorID%", "/Authentication/Token/Issue", OutcomeSuccess, 4},
		EventInfo{EventTokenClaimed, CategoryUser, "EventLog_TokenClaimed", "Token Claimed",
			"Verification token claimed by %perpetratorID%", "/Authentication/Token/Claim", OutcomeSuccess, 4},
		EventInfo{EventIntruderUserLock, CategoryUser, "EventLog_IntruderUserLock", "Intruder User Lock",
			"%perpetratorID% locked out after repeated failures from %sourceAddress%", "/Account/Lock/Set", OutcomeFailure, 7},
		EventInfo{EventIntruderUserAttempt, CategoryUser, "EventLog_IntruderUserAttempt", "Intruder User Attempt",
			"Failed attempt against %perpetratorID% from %sourceAddress%", "/Account/Intrusion/Attempt", OutcomeFailure, 6},

		EventInfo{EventHelpdeskSetPassword, CategoryHelpdesk, "EventLog_HelpdeskSetPassword", "Helpdesk Set Password",
			"%perpetratorID% set the password of %targetID%", "/Account/Credential/Modify", OutcomeSuccess, 6},
		EventInfo{EventHelpdeskUnlockPassword, CategoryHelpdesk, "EventLog_HelpdeskUnlockPassword", "Helpdesk Unlock Password",
			"%perpetratorID% unlocked the account of %targetID%", "/Account/Lock/Clear", OutcomeSuccess, 5},
		EventInfo{EventHelpdeskClearResponses, CategoryHelpdesk, "EventLog_HelpdeskClearResponses", "Helpdesk Clear Responses",
			"%perpetratorID% cleared recovery responses of %targetID%", "/Account/Recovery/Clear", OutcomeSuccess, 5},
		EventInfo{EventHelpdeskClearOTPSecret, CategoryHelpdesk, "EventLog_HelpdeskClearOtpSecret", "Helpdesk Clear OTP Secret",
			"%perpetratorID% cleared the OTP secret of %targetID%", "/Account/OTP/Clear", OutcomeSuccess, 6},
		EventInfo{EventHelpdeskAction, CategoryHelpdesk, "EventLog_HelpdeskAction", "Helpdesk Action",
			"%perpetratorID% ran action %message% on %targetID%", "/Account/Action", OutcomeSuccess, 4},
		EventInfo{EventHelpdeskDeleteUser, CategoryHelpdesk, "EventLog_HelpdeskDeleteUser", "Helpdesk Delete User",
			"%perpetratorID% deleted account %targetID%", "/Account/Delete", OutcomeSuccess, 7},
		EventInfo{EventHelpdeskViewDetail, CategoryHelpdesk, "EventLog_HelpdeskViewDetail", "Helpdesk View Detail",
			"%perpetratorID% viewed details of %targetID%", "/Account/Read", OutcomeSuccess, 2},
		EventInfo{EventHelpdeskVerifyOTP, CategoryHelpdesk, "EventLog_HelpdeskVerifyOtp", "Helpdesk Verify OTP",
			"%perpetratorID% verified the OTP code of %targetID%", "/Authentication/OTP/Verify", OutcomeSuccess, 4},
		EventInfo{EventHelpdeskVerifyOTPFailure, CategoryHelpdesk, "EventLog_HelpdeskVerifyOtpIncorrect", "Helpdesk Verify OTP Incorrect",
			"%perpetratorID% entered an incorrect OTP code for %targetID%", "/Authentication/OTP/Verify", OutcomeFailure, 6},
	)
}

// Lookup returns the catalog entry for code.
func Lookup(code EventCode) (EventInfo, bool) {
	info, ok := catalog[code]
	return info, ok
}

// CategoryOf returns the category of code, or "" for unknown codes.
func CategoryOf(code EventCode) Category {
	return catalog[code].Category
}

// Codes returns every catalog code, sorted.
func Codes() []EventCode {
	codes := make([]EventCode, 0, len(catalog))
	for code := range catalog {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// CodesFor returns the sorted codes belonging to category.
func CodesFor(category Category) []EventCode {
	var codes []EventCode
	for _, code := range Codes() {
		if catalog[code].Category == category {
			codes = append(codes, code)
		}
	}
	return codes
}

// ParseEventCodes converts configured names into catalog codes. Names are
// case-insensitive; the special name "ALL" selects the whole catalog.
func ParseEventCodes(names []string) ([]EventCode, error) {
	seen := make(map[EventCode]struct{}, len(names))
	var codes []EventCode
	for _, name := range names {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if name == "ALL" {
			return Codes(), nil
		}
		code := EventCode(name)
		if _, ok := catalog[code]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}
