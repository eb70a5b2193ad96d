// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package proto is the PTP/SDIO wire vocabulary: operation, response,
// property and control codes, data types, form flags, and the Value tagged
// union they describe. It has no knowledge of transports or sessions; pkg/ptp
// builds the session engine on top of it.
package proto

// OpCode identifies a PTP or SDIO operation.
type OpCode uint16

const (
	OC_GetDeviceInfo  OpCode = 0x1001
	OC_OpenSession    OpCode = 0x1002
	OC_CloseSession   OpCode = 0x1003
	OC_GetStorageID   OpCode = 0x1004
	OC_GetStorageInfo OpCode = 0x1005
	OC_GetObjectInfo  OpCode = 0x1008
	OC_GetObject      OpCode = 0x1009
	OC_GetThumb       OpCode = 0x100A
	OC_DeleteObject   OpCode = 0x100B
	OC_SendObject     OpCode = 0x100D

	OC_SDIOConnect                  OpCode = 0x9201
	OC_SDIOGetExtDeviceInfo         OpCode = 0x9202
	OC_SDIOSetExtDevicePropValue    OpCode = 0x9205
	OC_SDIOControlDevice            OpCode = 0x9207
	OC_SDIOGetAllExtDevicePropInfo  OpCode = 0x9209
	OC_SDIOSetFTPSettingFilePwd     OpCode = 0x920F
	OC_SDIOOpenSession              OpCode = 0x9210
	OC_SDIOGetPartialLargeObject    OpCode = 0x9211
	OC_SDIOSetContentsTransferMode  OpCode = 0x9212
	OC_SDIOGetDisplayStringList     OpCode = 0x9215
	OC_SDIOGetVendorCodeVersion     OpCode = 0x9216
)

// ResponseCode identifies the outcome of a PTP transaction.
type ResponseCode uint16

const (
	RC_OK                        ResponseCode = 0x2001
	RC_GeneralError              ResponseCode = 0x2002
	RC_SessionNotOpen            ResponseCode = 0x2003
	RC_InvalidTransactionID      ResponseCode = 0x2004
	RC_OperationNotSupported     ResponseCode = 0x2005
	RC_ParameterNotSupported     ResponseCode = 0x2006
	RC_IncompleteTransfer        ResponseCode = 0x2007
	RC_InvalidStorageID          ResponseCode = 0x2008
	RC_InvalidObjectHandle       ResponseCode = 0x2009
	RC_DevicePropNotSupported    ResponseCode = 0x200A
	RC_StoreFull                ResponseCode = 0x200C
	RC_StoreReadOnly             ResponseCode = 0x200E
	RC_AccessDenied              ResponseCode = 0x200F
	RC_NoThumbnailPresent        ResponseCode = 0x2010
	RC_SelfTestFailed            ResponseCode = 0x2011
	RC_PartialDeletion           ResponseCode = 0x2012
	RC_StoreNotAvailable         ResponseCode = 0x2013
	RC_SpecByFormatUnsupported   ResponseCode = 0x2014
	RC_NoValidObjectInfo         ResponseCode = 0x2015
	RC_InvalidCodeFormat         ResponseCode = 0x2016
	RC_UnknownVendorCode         ResponseCode = 0x2017
	RC_CaptureAlreadyTerminated  ResponseCode = 0x2018
	RC_DeviceBusy                ResponseCode = 0x2019
	RC_InvalidParentObject       ResponseCode = 0x201A
	RC_InvalidDevicePropFormat   ResponseCode = 0x201B
	RC_InvalidDevicePropValue    ResponseCode = 0x201C
	RC_InvalidParameter          ResponseCode = 0x201D
	RC_SessionAlreadyOpen        ResponseCode = 0x201E
	RC_TransactionCancelled      ResponseCode = 0x201F
	RC_SpecDestUnsupported       ResponseCode = 0x2020
)

// DataType tags the wire representation of a Value.
type DataType uint16

const (
	DTUndef   DataType = 0x0000
	DTInt8    DataType = 0x0001
	DTUint8   DataType = 0x0002
	DTInt16   DataType = 0x0003
	DTUint16  DataType = 0x0004
	DTInt32   DataType = 0x0005
	DTUint32  DataType = 0x0006
	DTInt64   DataType = 0x0007
	DTUint64  DataType = 0x0008
	DTInt128  DataType = 0x0009
	DTUint128 DataType = 0x000A
	DTAInt8   DataType = 0x4001
	DTAUint8  DataType = 0x4002
	DTAInt16  DataType = 0x4003
	DTAUint16 DataType = 0x4004
	DTAInt32  DataType = 0x4005
	DTAUint32 DataType = 0x4006
	DTAInt64  DataType = 0x4007
	DTAUint64 DataType = 0x4008
	DTStr     DataType = 0xFFFF
)

// FormFlag is the descriptor form: none, range, or enum (spec §3).
type FormFlag uint8

const (
	FormNone  FormFlag = 0x00
	FormRange FormFlag = 0x01
	FormEnum  FormFlag = 0x02
)

// GetSetMode marks whether a descriptor's value is read-only or read/write.
type GetSetMode uint8

const (
	GetOnly    GetSetMode = 0x00
	GetAndSet  GetSetMode = 0x01
)

// ProtocolVersion is the SDIO extension version negotiated at connect.
type ProtocolVersion uint16

const (
	ProtocolVersion200 ProtocolVersion = 200
	ProtocolVersion300 ProtocolVersion = 300
)

// PropCode identifies a device property (the DPC_* band).
type PropCode uint16

const (
	DPCCompressionSetting   PropCode = 0x5004
	DPCWhiteBalance         PropCode = 0x5005
	DPCFNumber              PropCode = 0x5007
	DPCFocusMode            PropCode = 0x500A
	DPCExposureMeteringMode PropCode = 0x500B
	DPCFlashMode            PropCode = 0x500C
	DPCExposureProgramMode  PropCode = 0x500E
	DPCExposureCompensation PropCode = 0x5010
	DPCCaptureMode          PropCode = 0x5013

	DPCFlashCompensation  PropCode = 0xD200
	DPCDROHDRMode         PropCode = 0xD201
	DPCImageSize          PropCode = 0xD203
	DPCShutterSpeed       PropCode = 0xD20D
	DPCBatteryLevel       PropCode = 0xD20E
	DPCColorTemperature   PropCode = 0xD20F
	DPCWhiteBalanceGM     PropCode = 0xD210
	DPCAspectRatio        PropCode = 0xD211
	DPCAFStatus           PropCode = 0xD213
	DPCPredictedMaxFileSz PropCode = 0xD214
	DPCPendingFiles       PropCode = 0xD215
	DPCBatteryRemaining   PropCode = 0xD218
	DPCPictureEffect      PropCode = 0xD21B
	DPCWhiteBalanceAB     PropCode = 0xD21C
	DPCISO                PropCode = 0xD21E
	DPCLiveViewStatus     PropCode = 0xD221
)

// ControlCode identifies an SDIO_ControlDevice target (the CTRL_* band,
// shared numeric space with PropCode for notch properties driven through
// the control path: see NotchControlCode).
type ControlCode uint16

// NotchProperties are legacy properties (protocol < 300) adjustable only
// via SDIO_ControlDevice relative step, never via SDIO_SetExtDevicePropValue
// (spec §3/§4.4).
var NotchProperties = map[PropCode]bool{
	DPCFNumber:              true,
	DPCExposureCompensation: true,
	DPCFlashCompensation:    true,
	DPCShutterSpeed:         true,
	DPCISO:                  true,
}

// NotchControlCode maps a notch property to the control code used to drive
// it relatively. Sony reuses the property code band for the handful of
// notch controls (observed in ptp-control.c's SDIO_ControlDevice call
// sites); this module keeps them identical rather than inventing a
// parallel numbering.
func NotchControlCode(p PropCode) ControlCode {
	return ControlCode(p)
}

// Pseudo object handles reserved for transfer operations (spec §4.4).
const (
	ObjectHandleCapturedImage    uint32 = 0xFFFFC001
	ObjectHandleLiveView         uint32 = 0xFFFFC002
	ObjectHandleCameraSettings   uint32 = 0xFFFFC004
	ObjectHandleFTPSettings      uint32 = 0xFFFFC005
)
