package converter

import (
	"hospital-appointment-server/internal/delivery/dto"
	"hospital-appointment-server/internal/domain/entity"

	"github.com/google/uuid"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:              appointment.ID,
		AppointmentDate: appointment.AppointmentDate.Format("2006-01-02"),
		AppointmentTime: appointment.AppointmentTime,
		Status:          string(appointment.Status),
		Priority:        string(appointment.Priority),
		Reason:          appointment.Reason,
		Symptoms:        appointment.Symptoms,
		Duration:        appointment.Duration,
		Notes:           appointment.Notes,
		CreatedAt:       appointment.CreatedAt,
		UpdatedAt:       appointment.UpdatedAt,
	}

	// Include participant display fields if loaded
	if appointment.Patient.ID != uuid.Nil {
		response.Patient = &dto.AppointmentUserResponse{
			ID:          appointment.Patient.ID,
			FullName:    appointment.Patient.FullName,
			Email:       appointment.Patient.Email,
			PhoneNumber: appointment.Patient.PhoneNumber,
		}
	}
	if appointment.Doctor.ID != uuid.Nil {
		response.Doctor = &dto.AppointmentUserResponse{
			ID:             appointment.Doctor.ID,
			FullName:       appointment.Doctor.FullName,
			Email:          appointment.Doctor.Email,
			PhoneNumber:    appointment.Doctor.PhoneNumber,
			Specialization: appointment.Doctor.Specialization,
		}
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities to slice of AppointmentResponse DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i, appointment := range appointments {
		resp := AppointmentToResponse(&appointment)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
