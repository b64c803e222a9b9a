package api

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const analyticsProtoFile = "qapulse/analytics/v1/analytics.proto"

// init registers the Analytics file descriptor so reflection clients can
// resolve the service's methods and message types.
func init() {
	fd, err := protodesc.NewFile(analyticsFileProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("build %s: %v", analyticsProtoFile, err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("register %s: %v", analyticsProtoFile, err))
	}
}

func analyticsFileProto() *descriptorpb.FileDescriptorProto {
	typeName := func(m proto.Message) *string {
		return proto.String("." + string(m.ProtoReflect().Descriptor().FullName()))
	}
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(analyticsProtoFile),
		Package: proto.String("qapulse.analytics.v1"),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			wrapperspb.File_google_protobuf_wrappers_proto.Path(),
			structpb.File_google_protobuf_struct_proto.Path(),
			emptypb.File_google_protobuf_empty_proto.Path(),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("Analytics"),
			Method: []*descriptorpb.MethodDescriptorProto{
				{
					Name:       proto.String("Answer"),
					InputType:  typeName(&wrapperspb.StringValue{}),
					OutputType: typeName(&structpb.Struct{}),
				},
				{
					Name:       proto.String("Suggestions"),
					InputType:  typeName(&emptypb.Empty{}),
					OutputType: typeName(&structpb.Struct{}),
				},
			},
		}},
	}
}
