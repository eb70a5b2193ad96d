// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proto

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout            = errors.New("ptp: transport timed out")
	ErrConnectionClosed   = errors.New("ptp: connection closed by peer")
	ErrMalformedResponse  = errors.New("ptp: malformed response frame")
	ErrOutOfMemory        = errors.New("ptp: allocator returned no memory")
	ErrNotSupported       = errors.New("ptp: operation or property not supported by device")
	ErrNotANotchProperty  = errors.New("ptp: property is not a notch property")
	ErrBackendUnavailable = errors.New("ptp: no backend of the requested type is available")
)

// ResponseCodeNames maps the well-known response codes to a short name,
// mirroring MethodStatusCodeMap's role in the teacher.
var ResponseCodeNames = map[ResponseCode]string{
	RC_OK:                       "OK",
	RC_GeneralError:              "GeneralError",
	RC_SessionNotOpen:            "SessionNotOpen",
	RC_InvalidTransactionID:      "InvalidTransactionID",
	RC_OperationNotSupported:     "OperationNotSupported",
	RC_ParameterNotSupported:     "ParameterNotSupported",
	RC_IncompleteTransfer:        "IncompleteTransfer",
	RC_InvalidStorageID:          "InvalidStorageID",
	RC_InvalidObjectHandle:       "InvalidObjectHandle",
	RC_DevicePropNotSupported:    "DevicePropNotSupported",
	RC_StoreFull:                "StoreFull",
	RC_StoreReadOnly:             "StoreReadOnly",
	RC_AccessDenied:              "AccessDenied",
	RC_NoThumbnailPresent:        "NoThumbnailPresent",
	RC_SelfTestFailed:            "SelfTestFailed",
	RC_PartialDeletion:           "PartialDeletion",
	RC_StoreNotAvailable:         "StoreNotAvailable",
	RC_SpecByFormatUnsupported:   "SpecByFormatUnsupported",
	RC_NoValidObjectInfo:         "NoValidObjectInfo",
	RC_InvalidCodeFormat:         "InvalidCodeFormat",
	RC_UnknownVendorCode:         "UnknownVendorCode",
	RC_CaptureAlreadyTerminated:  "CaptureAlreadyTerminated",
	RC_DeviceBusy:                "DeviceBusy",
	RC_InvalidParentObject:       "InvalidParentObject",
	RC_InvalidDevicePropFormat:   "InvalidDevicePropFormat",
	RC_InvalidDevicePropValue:    "InvalidDevicePropValue",
	RC_InvalidParameter:          "InvalidParameter",
	RC_SessionAlreadyOpen:        "SessionAlreadyOpen",
	RC_TransactionCancelled:      "TransactionCancelled",
	RC_SpecDestUnsupported:       "SpecDestUnsupported",
}

// ResponseError wraps a non-OK PTP response code (spec §7,
// device-response-error).
type ResponseError struct {
	Code ResponseCode
}

func (e *ResponseError) Error() string {
	if name, ok := ResponseCodeNames[e.Code]; ok {
		return fmt.Sprintf("ptp: device returned %s (%#04x)", name, uint16(e.Code))
	}
	return fmt.Sprintf("ptp: device returned response code %#04x", uint16(e.Code))
}

// CheckResponse turns a non-OK response code into a *ResponseError.
func CheckResponse(code ResponseCode) error {
	if code == RC_OK {
		return nil
	}
	return &ResponseError{Code: code}
}
